package main

import (
	"fmt"

	"github.com/vietcart-next/internal/config"
	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{
			NameJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Thiết bị điện tử",
				"en-US": "Electronics",
			}),
			Slug: "electronics",
		},
		{
			NameJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Đồ gia dụng",
				"en-US": "Home & Living",
			}),
			Slug: "home-living",
		},
		{
			NameJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Phụ kiện số",
				"en-US": "Accessories",
			}),
			Slug: "accessories",
		},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"electronics", "home-living", "accessories"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}
	electronicsID := categoryIDs["electronics"]
	homeLivingID := categoryIDs["home-living"]
	accessoriesID := categoryIDs["accessories"]

	linkRate := decimal.NewFromFloat(0.08)

	// 添加商品（价格为越南盾整数）
	products := []models.Product{
		{
			TitleJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Tai nghe Bluetooth không dây",
				"en-US": "Wireless Bluetooth Earphones",
			}),
			Slug: "wireless-earphones",
			DescriptionJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Âm thanh chất lượng cao, pin lâu, đeo thoải mái",
				"en-US": "High quality sound, long battery life, comfortable to wear",
			}),
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(1290000)),
			CategoryID:  electronicsID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			}),
			Tags:               models.StringArray([]string{"Audio", "Wireless"}),
			StockTotal:         200,
			IsAffiliateEnabled: true,
			IsActive:           true,
		},
		{
			TitleJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Đồng hồ thông minh",
				"en-US": "Smart Watch",
			}),
			Slug: "smart-watch",
			DescriptionJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Theo dõi sức khỏe, luyện tập và thông báo",
				"en-US": "Health monitoring, fitness tracking, notifications",
			}),
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(2590000)),
			CategoryID:  electronicsID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1579586337278-3befd40fd17a?w=800",
			}),
			Tags:               models.StringArray([]string{"Wearable", "Smart"}),
			StockTotal:         120,
			IsAffiliateEnabled: true,
			CommissionRate:     &linkRate,
			IsActive:           true,
		},
		{
			TitleJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Sạc dự phòng di động",
				"en-US": "Portable Power Bank",
			}),
			Slug: "power-bank",
			DescriptionJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Dung lượng lớn, sạc nhanh, tương thích nhiều thiết bị",
				"en-US": "High capacity, fast charging, multi-device compatible",
			}),
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(650000)),
			CategoryID:  accessoriesID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1609091839311-d5365f9ff1c5?w=800",
			}),
			Tags:               models.StringArray([]string{"Charger", "Portable"}),
			StockTotal:         0, // 不限量
			IsAffiliateEnabled: true,
			IsActive:           true,
		},
		{
			TitleJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Ba lô đa năng",
				"en-US": "Multi-function Backpack",
			}),
			Slug: "backpack",
			DescriptionJSON: models.JSON(map[string]interface{}{
				"vi-VN": "Chống nước, chống trộm, cổng sạc USB",
				"en-US": "Waterproof, anti-theft, USB charging port",
			}),
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(890000)),
			CategoryID:  homeLivingID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=800",
			}),
			Tags:               models.StringArray([]string{"Bag", "Travel"}),
			StockTotal:         60,
			IsAffiliateEnabled: false, // 不参与分销的演示商品
			IsActive:           true,
		},
	}

	for _, prod := range products {
		if prod.CategoryID == 0 {
			stdLog.Printf("Skip product %s: category_id missing", prod.Slug)
			continue
		}
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			existing.TitleJSON = prod.TitleJSON
			existing.DescriptionJSON = prod.DescriptionJSON
			existing.PriceAmount = prod.PriceAmount
			existing.CategoryID = prod.CategoryID
			existing.Images = prod.Images
			existing.Tags = prod.Tags
			existing.StockTotal = prod.StockTotal
			existing.IsAffiliateEnabled = prod.IsAffiliateEnabled
			existing.CommissionRate = prod.CommissionRate
			existing.IsActive = prod.IsActive
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Updated product: %s", prod.Slug)
			}
		}
	}

	// 写入分销默认配置与站点配置
	seedSettings := map[string]map[string]interface{}{
		"affiliate_config": service.AffiliateSettingToMap(service.AffiliateDefaultSetting()),
		"site_config": {
			"site_name": "VietCart",
			"contact": map[string]string{
				"zalo":  "https://zalo.me/vietcart",
				"email": "support@vietcart.example",
			},
		},
	}

	for key, value := range seedSettings {
		var setting models.Setting
		if err := models.DB.Where("key = ?", key).First(&setting).Error; err != nil {
			setting = models.Setting{
				Key:       key,
				ValueJSON: models.JSON(value),
			}
			if err := models.DB.Create(&setting).Error; err != nil {
				stdLog.Printf("Failed to create setting %s: %v", key, err)
			} else {
				stdLog.Printf("Created setting: %s", key)
			}
		} else {
			setting.ValueJSON = models.JSON(value)
			if err := models.DB.Save(&setting).Error; err != nil {
				stdLog.Printf("Failed to update setting %s: %v", key, err)
			} else {
				stdLog.Printf("Updated setting: %s", key)
			}
		}
	}

	fmt.Println("\nSeed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Categories")
	fmt.Println("- 4 Products")
	fmt.Println("- Affiliate & site configuration")
}
