package mailer

type Service interface {
	SendWelcomeEmail(toEmail, toName, plan, contractURL string) error
}
