package enums

// NotificationKind names the customer emails the mailer can send. The backend
// only queues them; dispatch happens outside this service.
type NotificationKind string

const (
	NotificationDepositReceived NotificationKind = "deposit_received"
	NotificationPaymentRetry    NotificationKind = "payment_retry_guidance"
	NotificationSessionExpired  NotificationKind = "session_expired"
	NotificationDepositRefunded NotificationKind = "deposit_refunded"
)

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	switch n {
	case NotificationDepositReceived, NotificationPaymentRetry, NotificationSessionExpired, NotificationDepositRefunded:
		return true
	}
	return false
}
