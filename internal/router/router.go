package router

import (
	"fmt"
	"strings"

	"github.com/vietcart-next/internal/cache"
	"github.com/vietcart-next/internal/config"
	"github.com/vietcart-next/internal/constants"
	adminhandlers "github.com/vietcart-next/internal/http/handlers/admin"
	publichandlers "github.com/vietcart-next/internal/http/handlers/public"
	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/categories", publicHandler.ListCategories)
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProduct)
			public.GET("/r/:slug", publicHandler.TrackLinkClick)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetProfile)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.PUT("/me/password", publicHandler.ChangePassword)

			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:order_no", publicHandler.GetMyOrder)
			user.POST("/orders/:order_no/pay", publicHandler.PayMyOrder)
			user.POST("/orders/:order_no/cancel", publicHandler.CancelMyOrder)

			user.GET("/affiliate/referral", publicHandler.GetMyReferral)
			user.POST("/affiliate/referral/bind", publicHandler.BindMyReferrer)
			user.GET("/affiliate/referrals", publicHandler.ListMyReferrals)
			user.GET("/affiliate/dashboard", publicHandler.GetMyAffiliateDashboard)
			user.GET("/affiliate/links", publicHandler.ListMyLinks)
			user.POST("/affiliate/links", publicHandler.CreateMyLink)
			user.PUT("/affiliate/links/:id", publicHandler.UpdateMyLink)
			user.GET("/affiliate/commissions", publicHandler.ListMyCommissions)
			user.GET("/affiliate/commissions/stats", publicHandler.GetMyCommissionStats)
			user.GET("/affiliate/ledger", publicHandler.ListMyLedger)

			user.GET("/bank-accounts", publicHandler.ListMyBankAccounts)
			user.POST("/bank-accounts", publicHandler.CreateMyBankAccount)
			user.PUT("/bank-accounts/:id", publicHandler.UpdateMyBankAccount)
			user.DELETE("/bank-accounts/:id", publicHandler.DeleteMyBankAccount)

			user.POST("/withdrawals", publicHandler.RequestWithdrawal)
			user.GET("/withdrawals", publicHandler.ListMyWithdrawals)
			user.POST("/withdrawals/:id/cancel", publicHandler.CancelMyWithdrawal)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.PUT("/password", adminHandler.ChangePassword)

				authorized.GET("/users", adminHandler.ListUsers)
				authorized.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.GetUser)
				authorized.PUT("/users/:id/role", adminHandler.UpdateUserRole)
				authorized.PUT("/users/:id/commission-rate", adminHandler.SetUserCommissionRate)
				authorized.GET("/users/:id/affiliate-overview", adminHandler.GetUserAffiliateOverview)

				authorized.GET("/categories", adminHandler.ListAllCategories)
				authorized.POST("/categories", adminHandler.CreateCategory)
				authorized.PUT("/categories/:id", adminHandler.UpdateCategory)
				authorized.DELETE("/categories/:id", adminHandler.DeleteCategory)

				authorized.GET("/products", adminHandler.ListAllProducts)
				authorized.GET("/products/:id", adminHandler.GetProductDetail)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/mark-paid", adminHandler.MarkOrderPaid)
				authorized.POST("/orders/:id/complete", adminHandler.CompleteOrder)
				authorized.POST("/orders/:id/cancel", adminHandler.CancelOrder)

				authorized.GET("/commissions", adminHandler.ListCommissions)
				authorized.GET("/commissions/stats", adminHandler.GetCommissionStats)
				authorized.PUT("/commissions/review", adminHandler.ReviewCommissions)

				authorized.GET("/withdrawals", adminHandler.ListWithdrawals)
				authorized.GET("/withdrawals/:id", adminHandler.GetWithdrawal)
				authorized.PUT("/withdrawals/:id/review", adminHandler.ReviewWithdrawal)

				authorized.GET("/bank-accounts", adminHandler.ListBankAccounts)
				authorized.PUT("/bank-accounts/:id/verify", adminHandler.VerifyBankAccount)

				authorized.GET("/affiliate-links", adminHandler.ListLinks)
				authorized.GET("/affiliate-links/:id", adminHandler.GetLink)
				authorized.PUT("/affiliate-links/:id", adminHandler.UpdateLink)

				authorized.GET("/ledger", adminHandler.ListLedgerEntries)
				authorized.GET("/ledger/reconcile/:user_id", adminHandler.ReconcileUserLedger)

				authorized.GET("/settings/site", adminHandler.GetSiteConfig)
				authorized.PUT("/settings/site", adminHandler.UpdateSiteConfig)
				authorized.GET("/settings/affiliate", adminHandler.GetAffiliateConfig)
				authorized.PUT("/settings/affiliate", adminHandler.UpdateAffiliateConfig)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
