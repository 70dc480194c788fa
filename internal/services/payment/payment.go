// Package payment содержит бизнес-логику оплаты подписки через PayOS:
// тарифные планы, создание платёжной ссылки, подтверждение оплаты
// и обработку уведомлений провайдера.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
	"github.com/magabrotheeeer/vivu-travel/internal/paymentprovider"
)

// ErrUnknownPlan запрошенный тарифный план не существует.
var ErrUnknownPlan = errors.New("unknown subscription plan")

// ErrPaymentNotCompleted провайдер ещё не подтвердил оплату.
var ErrPaymentNotCompleted = errors.New("payment is not completed")

// Тарифные планы. Цены в VND, годовой план даёт два месяца бесплатно.
var plans = map[string]models.Plan{
	models.KindMonthly: {
		Kind:           models.KindMonthly,
		Name:           "Gói tháng",
		Price:          25000,
		DurationMonths: 1,
		Description:    "Truy cập không giới hạn trong 1 tháng",
	},
	models.KindYearly: {
		Kind:           models.KindYearly,
		Name:           "Gói năm",
		Price:          250000,
		DurationMonths: 12,
		Description:    "Truy cập không giới hạn trong 1 năm (tiết kiệm 2 tháng)",
	},
}

// Repository определяет методы для работы с платежами в хранилище.
type Repository interface {
	SavePayment(ctx context.Context, payment models.Payment) (int, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetPaymentByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error)
	// UpdatePaymentStatus переводит платёж из pending в новый статус,
	// возвращает 0 обновлённых строк для уже обработанного платежа.
	UpdatePaymentStatus(ctx context.Context, orderID, status string) (int, error)
	ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error)
}

// UserRepository отдаёт данные пользователя для платёжной ссылки и письма.
type UserRepository interface {
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// Activator активирует оплаченный план в подписке пользователя.
type Activator interface {
	ActivateFromPayment(ctx context.Context, userUID, planKind string, durationMonths int) error
}

// Provider описывает операции платёжного провайдера.
type Provider interface {
	CreatePaymentLink(req paymentprovider.CreateLinkRequest) (*paymentprovider.CreateLinkResponse, error)
	GetPaymentLinkInformation(orderCode int64) (*paymentprovider.LinkInformation, error)
	VerifyWebhookSignature(payload *paymentprovider.WebhookPayload) error
}

// Publisher публикует событие в очередь уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Order платёжная ссылка, выданная пользователю.
type Order struct {
	OrderID    string `json:"order_id"`
	OrderCode  int64  `json:"order_code"`
	PaymentURL string `json:"payment_url"`
	Amount     int64  `json:"amount"`
	PlanKind   string `json:"plan_kind"`
}

// Service реализует операции оплаты подписки.
type Service struct {
	repo      Repository
	users     UserRepository
	activator Activator
	provider  Provider
	pub       Publisher
	returnURL string
	cancelURL string
	log       *slog.Logger

	// now подменяется в тестах
	now func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, users UserRepository, activator Activator, provider Provider,
	pub Publisher, returnURL, cancelURL string, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		activator: activator,
		provider:  provider,
		pub:       pub,
		returnURL: returnURL,
		cancelURL: cancelURL,
		log:       log,
		now:       time.Now,
	}
}

// Plans возвращает доступные тарифные планы.
func (s *Service) Plans() []models.Plan {
	return []models.Plan{plans[models.KindMonthly], plans[models.KindYearly]}
}

// orderCodeFrom выводит числовой код заказа из его идентификатора:
// провайдер принимает только число, берутся последние девять цифр.
func orderCodeFrom(orderID string) int64 {
	digits := make([]byte, 0, len(orderID))
	for _, r := range orderID {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r))
		}
	}
	if len(digits) > 9 {
		digits = digits[len(digits)-9:]
	}
	code, _ := strconv.ParseInt(string(digits), 10, 64)
	return code
}

// CreateOrder создаёт платёжную ссылку у провайдера и сохраняет
// платёж в статусе pending.
func (s *Service) CreateOrder(ctx context.Context, userUID string, req models.DummyCreatePayment) (*Order, error) {
	plan, ok := plans[req.PlanKind]
	if !ok {
		return nil, ErrUnknownPlan
	}

	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, err
	}

	orderID := fmt.Sprintf("SUB_%s_%d", userUID, s.now().UnixMilli())
	orderCode := orderCodeFrom(orderID)

	linkResp, err := s.provider.CreatePaymentLink(paymentprovider.CreateLinkRequest{
		OrderCode:   orderCode,
		Amount:      plan.Price,
		Description: plan.Name + " - Vivu Travel",
		Items: []paymentprovider.Item{
			{Name: plan.Name, Quantity: 1, Price: plan.Price},
		},
		ReturnURL:  s.returnURL,
		CancelURL:  s.cancelURL,
		BuyerName:  user.Name,
		BuyerEmail: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	payment := models.Payment{
		UserUID:   userUID,
		OrderID:   orderID,
		OrderCode: orderCode,
		Amount:    plan.Price,
		Currency:  "VND",
		PlanKind:  plan.Kind,
		Status:    models.PaymentPending,
	}
	if _, err := s.repo.SavePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.log.Info("created payment order",
		slog.String("order_id", orderID), slog.String("plan", plan.Kind))

	return &Order{
		OrderID:    orderID,
		OrderCode:  orderCode,
		PaymentURL: linkResp.Data.CheckoutURL,
		Amount:     plan.Price,
		PlanKind:   plan.Kind,
	}, nil
}

// Verify запрашивает состояние платежа у провайдера и, если он оплачен,
// подтверждает платёж и активирует подписку. Операция идемпотентна:
// повторная проверка уже подтверждённого платежа подписку не трогает.
func (s *Service) Verify(ctx context.Context, userUID string, req models.DummyVerifyPayment) (*models.Payment, error) {
	payment, err := s.repo.GetPaymentByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if payment.UserUID != userUID {
		return nil, entitlement.ErrNotFound
	}

	info, err := s.provider.GetPaymentLinkInformation(payment.OrderCode)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if info.Status != paymentprovider.StatusPaid {
		return nil, ErrPaymentNotCompleted
	}

	if err := s.complete(ctx, payment); err != nil {
		return nil, err
	}
	payment.Status = models.PaymentCompleted
	return payment, nil
}

// HandleWebhook обрабатывает уведомление провайдера. Подпись проверена
// на уровне обработчика HTTP.
func (s *Service) HandleWebhook(ctx context.Context, payload *paymentprovider.WebhookPayload) error {
	if err := s.provider.VerifyWebhookSignature(payload); err != nil {
		return err
	}

	switch payload.Data.Status {
	case paymentprovider.StatusPaid:
		payment, err := s.repo.GetPaymentByOrderCode(ctx, payload.Data.OrderCode)
		if err != nil {
			return err
		}
		return s.complete(ctx, payment)
	case paymentprovider.StatusCancelled, paymentprovider.StatusExpired:
		payment, err := s.repo.GetPaymentByOrderCode(ctx, payload.Data.OrderCode)
		if err != nil {
			return err
		}
		_, err = s.repo.UpdatePaymentStatus(ctx, payment.OrderID, models.PaymentCancelled)
		return err
	default:
		s.log.Info("ignoring webhook status",
			slog.Int64("order_code", payload.Data.OrderCode),
			slog.String("status", payload.Data.Status))
		return nil
	}
}

// complete подтверждает платёж, активирует подписку и публикует
// событие для письма-квитанции.
func (s *Service) complete(ctx context.Context, payment *models.Payment) error {
	if payment.Status == models.PaymentCompleted {
		// Платёж уже обработан, повторная активация не нужна
		return nil
	}

	// Сначала активация, потом смена статуса: если активация упала,
	// платёж остаётся в pending и повторная проверка доведёт его до конца.
	plan := plans[payment.PlanKind]
	if err := s.activator.ActivateFromPayment(ctx, payment.UserUID, plan.Kind, plan.DurationMonths); err != nil {
		return err
	}

	rowsAffected, err := s.repo.UpdatePaymentStatus(ctx, payment.OrderID, models.PaymentCompleted)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Параллельный обработчик успел подтвердить платёж, письмо уже отправлено
		return nil
	}
	s.log.Info("payment completed, subscription activated",
		slog.String("order_id", payment.OrderID), slog.String("user_uid", payment.UserUID))

	user, err := s.users.GetUserByUID(ctx, payment.UserUID)
	if err != nil {
		s.log.Warn("failed to load user for receipt", slog.Any("err", err))
		return nil
	}
	event := models.PaymentEvent{
		Email:    user.Email,
		Name:     user.Name,
		OrderID:  payment.OrderID,
		PlanKind: payment.PlanKind,
		Amount:   payment.Amount,
	}
	if err := s.pub.Publish(ctx, rabbitmq.RoutingKeyPaymentConfirmed, event); err != nil {
		s.log.Warn("failed to publish payment event", slog.Any("err", err))
	}
	return nil
}

// History возвращает платежи пользователя, новые первыми.
func (s *Service) History(ctx context.Context, userUID string) ([]*models.Payment, error) {
	return s.repo.ListPayments(ctx, userUID)
}
