package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/media"
	"backend/internal/middleware"
	"backend/internal/payments"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Println("⚠️ user index warning:", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Println("⚠️ cart index warning:", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("⚠️ order index warning:", err)
	}
	if err := database.EnsureBannerIndexes(db); err != nil {
		log.Println("⚠️ banner index warning:", err)
	}
	if err := database.EnsureCatalogIndexes(db); err != nil {
		log.Println("⚠️ catalog index warning:", err)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			_, err := primitive.ObjectIDFromHex(fl.Field().String())
			return err == nil
		})
	}

	pay := payments.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	mediaClient, err := media.New(cfg.CloudinaryURL)
	if err != nil {
		log.Fatal("cloudinary init failed:", err)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", handlers.Health(db))

	r.POST("/api/auth/register", handlers.Register(db, cfg))
	r.POST("/api/auth/login", handlers.Login(db, cfg))
	r.POST("/api/auth/refresh", handlers.Refresh(db, cfg))
	r.POST("/api/auth/logout", handlers.Logout(db))
	r.GET("/api/auth/me", middleware.UserAuth(cfg.JWTSecret), handlers.GetMe(db))

	r.GET("/api/products", handlers.GetProducts(db))
	r.GET("/api/products/:id", handlers.GetProductByID(db))
	r.GET("/api/categories", handlers.GetActiveCategories(db))
	r.GET("/api/collections", handlers.GetActiveCollections(db))
	r.GET("/api/colors", handlers.GetActiveColors(db))
	r.GET("/api/skill-levels", handlers.GetActiveSkillLevels(db))
	r.GET("/api/banners", handlers.GetActiveBanners(db))
	r.GET("/api/bundles", handlers.GetActiveBundles(db))

	r.POST("/api/webhooks/stripe", handlers.StripeWebhook(db, pay))

	cart := r.Group("/api/cart")
	cart.Use(middleware.UserAuth(cfg.JWTSecret))
	{
		cart.GET("", handlers.GetCart(db))
		cart.POST("/items", handlers.AddToCart(db))
		cart.PUT("/items", handlers.UpdateCartItem(db))
		cart.DELETE("/items", handlers.RemoveCartItem(db))
		cart.DELETE("", handlers.ClearCart(db))
		cart.POST("/sync", handlers.SyncCart(db))
	}

	user := r.Group("/api")
	user.Use(middleware.UserAuth(cfg.JWTSecret))
	{
		user.POST("/checkout/session", handlers.CreateCheckoutSession(db, pay, cfg))
		user.GET("/checkout/confirm", handlers.ConfirmOrder(db, pay))

		user.GET("/orders", handlers.GetUserOrders(db))
		user.GET("/orders/:id", handlers.GetUserOrderByID(db))

		user.GET("/account/addresses", handlers.GetAddresses(db))
		user.POST("/account/addresses", handlers.CreateAddress(db))
		user.PUT("/account/addresses/:addressId", handlers.UpdateAddress(db))
		user.DELETE("/account/addresses/:addressId", handlers.DeleteAddress(db))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.GET("/products", handlers.GetAdminProducts(db))
		admin.GET("/products/:id", handlers.GetAdminProduct(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/categories", handlers.GetAllCategories(db))
		admin.POST("/categories", handlers.CreateCategory(db))
		admin.PUT("/categories/:id", handlers.UpdateCategory(db))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db))

		admin.GET("/collections", handlers.GetAllCollections(db))
		admin.POST("/collections", handlers.CreateCollection(db))
		admin.PUT("/collections/:id", handlers.UpdateCollection(db))
		admin.DELETE("/collections/:id", handlers.DeleteCollection(db))

		admin.GET("/colors", handlers.GetAllColors(db))
		admin.POST("/colors", handlers.CreateColor(db))
		admin.PUT("/colors/:id", handlers.UpdateColor(db))
		admin.DELETE("/colors/:id", handlers.DeleteColor(db))

		admin.GET("/skill-levels", handlers.GetAllSkillLevels(db))
		admin.POST("/skill-levels", handlers.CreateSkillLevel(db))
		admin.PUT("/skill-levels/:id", handlers.UpdateSkillLevel(db))
		admin.DELETE("/skill-levels/:id", handlers.DeleteSkillLevel(db))

		admin.GET("/bundles", handlers.GetAllBundles(db))
		admin.POST("/bundles", handlers.CreateBundle(db))
		admin.PUT("/bundles/:id", handlers.UpdateBundle(db))
		admin.DELETE("/bundles/:id", handlers.DeleteBundle(db))

		admin.GET("/banners", handlers.GetAllBanners(db))
		admin.POST("/banners", handlers.CreateBanner(db))
		admin.PUT("/banners/:id", handlers.UpdateBanner(db, mediaClient))
		admin.PUT("/banners/:id/reorder", handlers.ReorderBanner(db))
		admin.DELETE("/banners/:id", handlers.DeleteBanner(db, mediaClient))

		admin.GET("/orders", handlers.GetAllOrders(db))
		admin.GET("/orders/:id", handlers.GetOrderByID(db))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(db))

		admin.POST("/uploads", handlers.UploadMedia(mediaClient))
		admin.DELETE("/uploads", handlers.DeleteMedia(mediaClient))
	}

	r.Run(":" + cfg.Port)
}
