package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/queless/trinity-canteen-api/config"
	"github.com/queless/trinity-canteen-api/models"
	"github.com/queless/trinity-canteen-api/services"
	"github.com/queless/trinity-canteen-api/utils"
)

// AddMenuItemRequest represents the request body for adding a menu item
type AddMenuItemRequest struct {
	Name  string `json:"name" binding:"required"`
	Price *int   `json:"price" binding:"required,gte=0"`
}

// ListMenu handles GET /api/v1/menu - lists all menu items.
// Items with an uploaded photo carry a presigned image URL.
func ListMenu(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var items []models.MenuItem
	if err := db.Order("name asc").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load menu",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService != nil {
		for i := range items {
			if items[i].ImageS3Key == nil {
				continue
			}
			url, err := imageService.GetImageURL(*items[i].ImageS3Key)
			if err != nil {
				log.Printf("Failed to generate image URL for menu item %d: %v", items[i].ID, err)
				continue
			}
			items[i].ImageURL = &url
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// AddMenuItem handles POST /api/v1/menu - adds a menu item (admin only).
// There is no update endpoint; editing an item means delete and re-add.
func AddMenuItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only the admin can manage the menu",
			},
		})
		return
	}

	var req AddMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Please enter item name and price",
				"details": err.Error(),
			},
		})
		return
	}

	item := models.MenuItem{
		Name:  req.Name,
		Price: *req.Price,
	}

	db := config.GetDB()
	if err := db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to add menu item",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// DeleteMenuItem handles DELETE /api/v1/menu/:id - removes a menu item
// (admin only). Already-placed orders are unaffected: they carry copies of
// the item name and price.
func DeleteMenuItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only the admin can manage the menu",
			},
		})
		return
	}

	db := config.GetDB()
	var item models.MenuItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	if err := db.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete menu item",
			},
		})
		return
	}

	// Clean up the photo; a failure here only leaks an object in the bucket
	if item.ImageS3Key != nil {
		if imageService := services.GetImageService(); imageService != nil {
			if err := imageService.DeleteImage(*item.ImageS3Key); err != nil {
				log.Printf("Failed to delete image for menu item %d: %v", item.ID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": item.ID},
	})
}

// UploadMenuItemImage handles POST /api/v1/menu/:id/image - attaches a PNG
// photo to a menu item (admin only)
func UploadMenuItemImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only the admin can manage the menu",
			},
		})
		return
	}

	db := config.GetDB()
	var item models.MenuItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Image file is required",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	imageKey, err := imageService.UploadImage(fileHeader)
	if err != nil {
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to upload image",
			},
		})
		return
	}

	// Replacing a photo removes the old object
	oldKey := item.ImageS3Key
	if err := db.Model(&item).Update("image_s3_key", imageKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save image reference",
			},
		})
		return
	}
	if oldKey != nil && *oldKey != imageKey {
		if err := imageService.DeleteImage(*oldKey); err != nil {
			log.Printf("Failed to delete replaced image %s: %v", *oldKey, err)
		}
	}

	url, err := imageService.GetImageURL(imageKey)
	if err != nil {
		log.Printf("Failed to generate image URL for menu item %d: %v", item.ID, err)
	} else {
		item.ImageURL = &url
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}
