package events

// Topic constants for domain events emitted by the platform.
const (
	TopicVoucherApplied = "voucher.applied"
	TopicOrderCreated   = "order.created"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicVoucherApplied,
		TopicOrderCreated,
	}
}
