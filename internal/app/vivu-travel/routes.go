// Package vivutravel собирает основное приложение: маршруты,
// middleware и зависимости сервисов.
package vivutravel

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/auth/google"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/comment"
	blogcreate "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/create"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/feed"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/like"
	bloglist "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/list"
	blogread "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/read"
	blogremove "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/remove"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/share"
	blogupdate "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/blog/update"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/chat/send"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/health"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/location/nearby"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/payment/paymentverify"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/payment/plans"
	promoapply "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/promo/apply"
	promocreate "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/promo/create"
	promolist "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/promo/list"
	promoremove "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/promo/remove"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/vivu-travel/internal/http/handlers/upload/image"
	uploadremove "github.com/magabrotheeeer/vivu-travel/internal/http/handlers/upload/remove"
	"github.com/magabrotheeeer/vivu-travel/internal/http/middlewarectx"

	adminservice "github.com/magabrotheeeer/vivu-travel/internal/services/admin"
	authservice "github.com/magabrotheeeer/vivu-travel/internal/services/auth"
	blogservice "github.com/magabrotheeeer/vivu-travel/internal/services/blog"
	chatservice "github.com/magabrotheeeer/vivu-travel/internal/services/chat"
	paymentservice "github.com/magabrotheeeer/vivu-travel/internal/services/payment"
	promoservice "github.com/magabrotheeeer/vivu-travel/internal/services/promo"
	subservice "github.com/magabrotheeeer/vivu-travel/internal/services/subscription"
	"github.com/magabrotheeeer/vivu-travel/internal/uploads"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.Service,
	subscriptionService *subservice.Service,
	promoService *promoservice.Service,
	paymentService *paymentservice.Service,
	blogService *blogservice.Service,
	chatService *chatservice.Service,
	adminService *adminservice.Service,
	uploader *uploads.Client,
	limiter *rate.Limiter,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/google", google.New(logger, authService).ServeHTTP)

		r.Get("/blogs", bloglist.New(logger, blogService).ServeHTTP)
		r.Get("/blogs/feed", feed.New(logger, blogService).ServeHTTP)
		r.Get("/blogs/{id}", blogread.New(logger, blogService).ServeHTTP)
		r.Get("/blogs/{id}/comments", comment.New(logger, blogService).List)
		r.Post("/blogs/{id}/share", share.New(logger, blogService).ServeHTTP)

		r.Get("/payments/plans", plans.New(logger, paymentService).ServeHTTP)

		// Webhook endpoint (без аутентификации, подпись проверяется сервисом)
		r.Post("/payments/webhook", paymentwebhook.New(logger, paymentService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

			r.Get("/auth/me", me.New(logger, authService).ServeHTTP)
			r.Get("/subscriptions/status", status.New(logger, subscriptionService).ServeHTTP)
			r.Post("/promo/apply", promoapply.New(logger, subscriptionService).ServeHTTP)

			r.Post("/payments", paymentcreate.New(logger, paymentService).ServeHTTP)
			r.Post("/payments/verify", paymentverify.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/history", paymentlist.New(logger, paymentService).ServeHTTP)

			r.Post("/chat", send.New(logger, chatService).ServeHTTP)
			r.Post("/locations/nearby", nearby.New(logger, chatService).ServeHTTP)

			r.Post("/blogs", blogcreate.New(logger, blogService).ServeHTTP)
			r.Put("/blogs/{id}", blogupdate.New(logger, blogService).ServeHTTP)
			r.Delete("/blogs/{id}", blogremove.New(logger, blogService).ServeHTTP)
			r.Post("/blogs/{id}/like", like.New(logger, blogService).ServeHTTP)
			r.Post("/blogs/{id}/comments", comment.New(logger, blogService).Create)

			uploadHandler := image.New(logger, uploader)
			r.Post("/uploads/image", uploadHandler.Single)
			r.Post("/uploads/images", uploadHandler.Multi)
			r.Delete("/uploads/{publicID}", uploadremove.New(logger, uploader).ServeHTTP)
		})

		// Административная группа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.AdminOnlyMiddleware(logger))

			r.Get("/admin/promo", promolist.New(logger, promoService).ServeHTTP)
			r.Post("/admin/promo", promocreate.New(logger, promoService).ServeHTTP)
			r.Delete("/admin/promo/{code}", promoremove.New(logger, promoService).ServeHTTP)
			r.Get("/admin/stats", stats.New(logger, adminService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
