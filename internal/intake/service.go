package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/internal/puppies"
	"github.com/hartfieldkennels/kennel-backend/internal/reservations"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/db"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/metrics"
	"github.com/hartfieldkennels/kennel-backend/pkg/paypal"
)

// FallbackUnitName is sent to the gateway when a puppy has no name yet. The
// gateway rejects empty description fields.
const FallbackUnitName = "Hartfield puppy"

// Order is what the checkout endpoint returns to the storefront.
type Order struct {
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approve_url,omitempty"`
}

// orderClient is the slice of the PayPal client intake depends on.
type orderClient interface {
	CreateOrder(ctx context.Context, params paypal.OrderCreateParams) (*paypal.Order, error)
}

// Service opens deposit orders against the gateway and stakes the pending
// reservation that holds the unit while the customer pays.
type Service interface {
	Checkout(ctx context.Context, puppySlug string) (*Order, error)
}

type service struct {
	tx              db.TxRunner
	puppyRepo       puppies.Repository
	reservationRepo reservations.Repository
	gateway         orderClient
	deposit         config.DepositConfig
	paypalCfg       config.PayPalConfig
	logger          *logger.Logger
	metrics         *metrics.IntakeMetrics
	newRequestID    func() string
}

// NewService wires the order intake service.
func NewService(
	tx db.TxRunner,
	puppyRepo puppies.Repository,
	reservationRepo reservations.Repository,
	gateway orderClient,
	deposit config.DepositConfig,
	paypalCfg config.PayPalConfig,
	logg *logger.Logger,
	m *metrics.IntakeMetrics,
) Service {
	return &service{
		tx:              tx,
		puppyRepo:       puppyRepo,
		reservationRepo: reservationRepo,
		gateway:         gateway,
		deposit:         deposit,
		paypalCfg:       paypalCfg,
		logger:          logg,
		metrics:         m,
		newRequestID:    uuid.NewString,
	}
}

func (s *service) Checkout(ctx context.Context, puppySlug string) (*Order, error) {
	start := time.Now()
	provider := enums.PaymentProviderPayPal.String()
	s.metrics.IncStarted(provider)

	puppy, err := s.puppyRepo.FindBySlug(ctx, puppySlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncRefused("not_found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Puppy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading puppy")
	}

	if puppy.Status != enums.PuppyStatusAvailable {
		s.metrics.IncRefused("unit_" + string(puppy.Status))
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("conflict: unit is `%s` and cannot be reserved", puppy.Status))
	}

	active, err := s.reservationRepo.HasActiveReservation(ctx, puppy.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking live reservations")
	}
	if active {
		s.metrics.IncRefused("reservation_in_progress")
		return nil, s.reservationInProgress()
	}

	depositCents, err := s.depositFor(puppy)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, paypal.OrderCreateParams{
		RequestID:   s.newRequestID(),
		ReferenceID: puppy.Slug,
		CustomID:    puppy.ID.String(),
		Description: unitDescription(puppy),
		AmountCents: depositCents,
		Currency:    s.deposit.Currency,
		ReturnURL:   s.paypalCfg.ReturnURL,
		CancelURL:   s.paypalCfg.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	// Stake the claim now rather than on first webhook: the unit must be
	// held the moment the customer is handed an approval link.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reservation := &models.Reservation{
			PuppyID:           puppy.ID,
			Provider:          enums.PaymentProviderPayPal,
			ExternalPaymentID: order.ID,
			DepositCents:      depositCents,
			Status:            enums.ReservationStatusPending,
		}
		if err := s.reservationRepo.WithTx(tx).Acquire(ctx, reservation); err != nil {
			if db.IsUniqueViolation(err, models.UniqueLiveReservationIndex) {
				return s.reservationInProgress()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "staking reservation")
		}
		return s.puppyRepo.WithTx(tx).UpdateStatus(ctx, puppy.ID, enums.PuppyStatusReserved)
	})
	if err != nil {
		// The gateway order stays open; it expires on its own and the
		// webhook path can still rebuild the reservation if it completes.
		return nil, err
	}

	s.metrics.ObserveDuration(provider, time.Since(start))
	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"puppy_slug":    puppy.Slug,
		"order_id":      order.ID,
		"deposit_cents": depositCents,
	}), "intake.order.created")

	return &Order{
		OrderID:    order.ID,
		Status:     order.Status,
		ApproveURL: order.ApproveURL(),
	}, nil
}

func (s *service) reservationInProgress() error {
	minutes := int(s.paypalCfg.OrderTTL.Minutes())
	if minutes <= 0 {
		minutes = 15
	}
	return pkgerrors.New(pkgerrors.CodeConflict,
		fmt.Sprintf("conflict: reservation in progress, retry in ~%d minutes", minutes))
}

// depositFor derives the deposit in cents from the configured policy.
func (s *service) depositFor(puppy *models.Puppy) (int64, error) {
	switch s.deposit.Policy {
	case config.DepositPolicyPercent:
		cents := puppy.Price.
			Mul(decimal.NewFromInt(int64(s.deposit.PricePercent))).
			Div(decimal.NewFromInt(100)).
			Mul(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		if cents <= 0 {
			return 0, pkgerrors.New(pkgerrors.CodeInternal, "computed deposit is not positive")
		}
		return cents, nil
	default:
		return s.deposit.FlatCents, nil
	}
}

func unitDescription(puppy *models.Puppy) string {
	if puppy.Name != nil && *puppy.Name != "" {
		return *puppy.Name
	}
	return FallbackUnitName
}
