package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vault-pay/vault_pay/internal/account"
	"github.com/vault-pay/vault_pay/internal/wallet"
)

// RegisterAccountRoutes wires account endpoints and auto-provisions a wallet on registration.
func RegisterAccountRoutes(r fiber.Router, accounts *account.Service, wallets *wallet.Service, logger *slog.Logger) {
	r.Post("/accounts/register", func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		user, err := accounts.Register(c.UserContext(), account.Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		var walletID string
		if wallets != nil {
			w, err := wallets.Create(c.UserContext(), wallet.CreateInput{OwnerID: user.ID})
			if err != nil {
				if logger != nil {
					logger.Error("wallet provisioning failed",
						slog.String("user_id", user.ID),
						slog.Any("error", err),
					)
				}
				return fiber.NewError(http.StatusInternalServerError, "wallet provisioning failed")
			}
			walletID = w.ID
		}
		if logger != nil {
			logger.Info("account.register completed",
				slog.String("user_id", user.ID),
				slog.String("email", user.Email),
				slog.String("wallet_id", walletID),
				slog.Int("status", http.StatusCreated),
			)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"user_id":   user.ID,
			"email":     user.Email,
			"wallet_id": walletID,
		})
	})

	// Plain authenticate (no tokens) for credential checks
	r.Post("/accounts/authenticate", func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		user, err := accounts.Authenticate(c.UserContext(), account.Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"user_id": user.ID,
			"email":   user.Email,
		})
	})
}

// RegisterProfileRoutes wires authenticated profile, PIN, and payment method endpoints.
func RegisterProfileRoutes(r fiber.Router, accounts *account.Service, repo account.Repository) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := repo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":       user.ID,
			"email":         user.Email,
			"pin_set":       len(user.PINHash) > 0,
			"token_version": user.TokenVersion,
			"created_at":    user.CreatedAt,
			"last_login":    user.LastLogin,
		})
	})

	r.Put("/me/pin", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		var req struct {
			PIN string `json:"pin"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := accounts.SetPIN(c.UserContext(), uid, req.PIN); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "pin_set"})
	})

	r.Post("/me/pin/verify", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		var req struct {
			PIN string `json:"pin"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := accounts.VerifyPIN(c.UserContext(), uid, req.PIN); err != nil {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "verified"})
	})

	r.Post("/me/payment-methods", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		var req struct {
			Kind  string `json:"kind"`
			Label string `json:"label"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		method, err := accounts.AddPaymentMethod(c.UserContext(), uid, req.Kind, req.Label)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"id":         method.ID,
			"kind":       method.Kind,
			"label":      method.Label,
			"created_at": method.CreatedAt,
		})
	})

	r.Get("/me/payment-methods", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		methods, err := accounts.ListPaymentMethods(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		items := make([]fiber.Map, 0, len(methods))
		for _, m := range methods {
			items = append(items, fiber.Map{
				"id":         m.ID,
				"kind":       m.Kind,
				"label":      m.Label,
				"created_at": m.CreatedAt,
			})
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"payment_methods": items})
	})
}
