package provider

import (
	"time"

	"github.com/vietcart-next/internal/cache"
	"github.com/vietcart-next/internal/config"
	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/queue"
	"github.com/vietcart-next/internal/repository"
	"github.com/vietcart-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	UserRepo        repository.UserRepository
	CategoryRepo    repository.CategoryRepository
	ProductRepo     repository.ProductRepository
	OrderRepo       repository.OrderRepository
	BankAccountRepo repository.BankAccountRepository
	LinkRepo        repository.AffiliateLinkRepository
	CommissionRepo  repository.CommissionRepository
	WithdrawalRepo  repository.WithdrawalRepository
	LedgerRepo      repository.LedgerRepository
	SettingRepo     repository.SettingRepository

	// Services
	AuthService       *service.AuthService
	UserAuthService   *service.UserAuthService
	UserService       *service.UserService
	ReferralService   *service.ReferralService
	CategoryService   *service.CategoryService
	ProductService    *service.ProductService
	OrderService      *service.OrderService
	BankAccountService *service.BankAccountService
	LinkService       *service.AffiliateLinkService
	CommissionService *service.CommissionService
	WithdrawalService *service.WithdrawalService
	LedgerService     *service.LedgerService
	SettingService    *service.SettingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.BankAccountRepo = repository.NewBankAccountRepository(db)
	c.LinkRepo = repository.NewAffiliateLinkRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.ReferralService = service.NewReferralService(c.UserRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.ReferralService)
	c.UserService = service.NewUserService(c.UserRepo, c.OrderRepo, c.LinkRepo, c.CommissionRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo)
	c.BankAccountService = service.NewBankAccountService(c.BankAccountRepo)

	attributionWindow := time.Duration(c.Config.Affiliate.AttributionWindowHours) * time.Hour
	c.LinkService = service.NewAffiliateLinkService(c.LinkRepo, c.UserRepo, attributionWindow)
	c.CommissionService = service.NewCommissionService(c.CommissionRepo, c.UserRepo, c.LedgerRepo, c.LinkRepo, c.SettingService)
	c.WithdrawalService = service.NewWithdrawalService(c.WithdrawalRepo, c.UserRepo, c.BankAccountRepo, c.LedgerRepo, c.SettingService)
	c.LedgerService = service.NewLedgerService(c.LedgerRepo, c.UserRepo, c.CommissionRepo, c.WithdrawalRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.UserRepo, c.LinkService, c.CommissionService, c.QueueClient, c.Config.Order.PaymentExpireMinutes)
}
