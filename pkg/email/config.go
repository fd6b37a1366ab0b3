package email

// Config holds email delivery settings. Postmark tokens are optional: without
// them New falls back to DevSender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"vip@predictvip.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@predictvip.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}
