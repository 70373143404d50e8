package constants

// Static route constants
const (
	APIRoute             = "/api"
	PublishRoute         = "/publish"
	CardRoute            = "/card/:id"
	EndorseRoute         = "/endorse"
	DirectoryRoute       = "/directory"
	PaymentCheckoutRoute = "/payment/checkout"
	PaymentWebhookRoute  = "/payment/webhook"
)
