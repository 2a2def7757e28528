package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	pgrepo "github.com/dogepandaCodes/PokinPokin/internal/repo/postgres"
	authsvc "github.com/dogepandaCodes/PokinPokin/internal/services/auth"
	"github.com/dogepandaCodes/PokinPokin/internal/services/catalog"
	checkoutsvc "github.com/dogepandaCodes/PokinPokin/internal/services/checkout"
	"github.com/dogepandaCodes/PokinPokin/internal/services/eventarchive"
	settlementsvc "github.com/dogepandaCodes/PokinPokin/internal/services/settlement"
	verifysvc "github.com/dogepandaCodes/PokinPokin/internal/services/verification"
	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/handlers"
)

type Dependencies struct {
	Catalog             *catalog.Catalog
	CheckoutService     *checkoutsvc.Service
	SettlementService   *settlementsvc.Service
	VerificationService *verifysvc.Service
	EventVerifier       handlers.EventVerifier
	EventArchive        *eventarchive.Archive
	PurchaseRepo        *pgrepo.PurchaseRepo
	TokenVerifier       *authsvc.Verifier
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authEnabled := deps.TokenVerifier.Enabled()

	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	checkoutHandler := handlers.NewCheckoutHandler(deps.CheckoutService, authEnabled, deps.Logger)
	verifyHandler := handlers.NewVerifyHandler(deps.VerificationService, deps.Logger)
	webhookHandler := handlers.NewWebhookHandler(deps.EventVerifier, deps.SettlementService, deps.Logger)
	if deps.EventArchive != nil {
		webhookHandler.AttachArchive(deps.EventArchive)
	}

	r.Get("/health", handlers.Health)
	r.Get("/packages", catalogHandler.List)
	r.Post("/webhook", webhookHandler.Handle)
	r.Get("/verify-payment/{sessionId}", verifyHandler.Handle)

	if !authEnabled {
		r.Post("/create-checkout-session", checkoutHandler.Create)
		return
	}

	purchasesHandler := handlers.NewPurchasesHandler(deps.PurchaseRepo, deps.Logger)
	r.Group(func(private chi.Router) {
		private.Use(AuthMiddleware(deps.TokenVerifier, deps.Logger))
		private.Post("/create-checkout-session", checkoutHandler.Create)
		private.Get("/purchases", purchasesHandler.List)
	})
}
