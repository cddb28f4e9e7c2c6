package handlers

// HandlerBundle groups all your endpoint handlers into one struct.
type HandlerBundle struct {
	Webhook *WebhookHandler
	Auth    *AuthHandler
	Admin   *AdminHandler
}
