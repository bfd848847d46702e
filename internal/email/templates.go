package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Content es el resultado de renderizar una plantilla.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// To arma el mensaje para un destinatario.
func (c Content) To(addr string) Message {
	return Message{To: addr, Subject: c.Subject, Text: c.Text, HTML: c.HTML}
}

const layoutStart = `<div style="font-family: 'Bricolage Grotesque', Arial, sans-serif; max-width: 600px; margin: 0 auto;">`
const layoutEnd = `<p>Best regards,<br>The Ask.io Team</p></div>`

var (
	verifyEmailTmpl = template.Must(template.New("verify").Parse(layoutStart + `
<h1 style="color: #1f2937;">Verify Your Email Address</h1>
<p>Welcome to Ask.io! Please use the verification code below to complete your registration.</p>
<div style="background-color: #f3f4f6; border-radius: 12px; padding: 30px; text-align: center;">
<p>Your verification code is:</p>
<div style="font-family: monospace; font-size: 32px; letter-spacing: 4px; color: #3b82f6;">{{.Code}}</div>
<p style="color: #6b7280; font-size: 14px;">This code will expire in {{.Expiry}}</p>
</div>
<p>If you didn't request this code, you can safely ignore this email.</p>
` + layoutEnd))

	verificationSuccessTmpl = template.Must(template.New("verified").Parse(layoutStart + `
<h1 style="color: #3b82f6;">Email Verified</h1>
<p>Hi {{.Name}},</p>
<p>Your email address has been successfully verified. You can now use all features of Ask.io.</p>
<a href="{{.DashboardURL}}" style="display: inline-block; background-color: #3b82f6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Go to Dashboard</a>
` + layoutEnd))

	welcomeTmpl = template.Must(template.New("welcome").Parse(layoutStart + `
<h1 style="color: #3b82f6;">Welcome to Ask.io!</h1>
<p>Hi {{.Name}},</p>
<p>We're excited to have you on board. Ask.io is your AI-powered research assistant that helps you find answers to your questions instantly.</p>
<ul>
<li>Ask any research question</li>
<li>Upload documents for analysis</li>
<li>Share links for AI to analyze</li>
</ul>
<a href="{{.DashboardURL}}" style="display: inline-block; background-color: #3b82f6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Go to Dashboard</a>
` + layoutEnd))

	lowCreditsTmpl = template.Must(template.New("low-credits").Parse(layoutStart + `
<h1 style="color: #3b82f6;">Low Credits Alert</h1>
<p>Hi {{.Name}},</p>
<p>Your Ask.io credits are running low. You currently have <strong>{{.Remaining}} credits</strong> remaining.</p>
<p>To continue using all features of Ask.io without interruption, please consider purchasing additional credits.</p>
<a href="{{.BillingURL}}" style="display: inline-block; background-color: #3b82f6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Purchase Credits</a>
` + layoutEnd))

	notificationTmpl = template.Must(template.New("notification").Parse(layoutStart + `
<h1 style="color: #3b82f6;">{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .Link}}<a href="{{.Link}}" style="display: inline-block; background-color: #3b82f6; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Details</a>{{end}}
` + layoutEnd))
)

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// las plantillas son fijas; un fallo aqui es un error de programacion
		panic(fmt.Sprintf("email: render %s: %v", t.Name(), err))
	}
	return buf.String()
}

func formatExpiry(ttl time.Duration) string {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func VerifyEmail(code string, ttl time.Duration) Content {
	expiry := formatExpiry(ttl)
	return Content{
		Subject: "Verify Your Email - Ask.io",
		Text:    fmt.Sprintf("Your verification code is: %s. This code will expire in %s.", code, expiry),
		HTML: render(verifyEmailTmpl, struct {
			Code   string
			Expiry string
		}{code, expiry}),
	}
}

func VerificationSuccess(name, appURL string) Content {
	return Content{
		Subject: "Email Verified - Ask.io",
		Text:    fmt.Sprintf("Hi %s, your email address has been successfully verified.", name),
		HTML: render(verificationSuccessTmpl, struct {
			Name         string
			DashboardURL string
		}{name, joinURL(appURL, "/dashboard")}),
	}
}

func Welcome(name, appURL string) Content {
	return Content{
		Subject: "Welcome to Ask.io!",
		Text:    fmt.Sprintf("Hi %s, Welcome to Ask.io! We're excited to have you on board.", name),
		HTML: render(welcomeTmpl, struct {
			Name         string
			DashboardURL string
		}{name, joinURL(appURL, "/dashboard")}),
	}
}

func LowCredits(name string, remaining int, appURL string) Content {
	return Content{
		Subject: "Your Ask.io Credits Are Running Low",
		Text:    fmt.Sprintf("Hi %s, Your Ask.io credits are running low. You have %d credits remaining.", name, remaining),
		HTML: render(lowCreditsTmpl, struct {
			Name       string
			Remaining  int
			BillingURL string
		}{name, remaining, joinURL(appURL, "/dashboard/billing")}),
	}
}

func Notification(title, message, link string) Content {
	text := message
	if link != "" {
		text = fmt.Sprintf("%s\n\n%s", message, link)
	}
	return Content{
		Subject: fmt.Sprintf("%s - Ask.io", title),
		Text:    text,
		HTML: render(notificationTmpl, struct {
			Title   string
			Message string
			Link    string
		}{title, message, link}),
	}
}
