package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	AppURL      string `env:"APP_URL" envDefault:"http://localhost:3000"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"askio"`

	LLMAPIKey  string `env:"LLM_API_KEY,required,notEmpty"`
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gemini-2.0-flash"`

	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPass       string `env:"SMTP_PASS"`
	SMTPUseTLS     bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	EmailFrom      string `env:"EMAIL_FROM" envDefault:"noreply@ask.io"`
	EmailFromName  string `env:"EMAIL_FROM_NAME" envDefault:"Ask.io"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	OTPTTL        time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPRateWindow time.Duration `env:"OTP_RATE_WINDOW" envDefault:"10m"`
	OTPRateMax    int           `env:"OTP_RATE_MAX" envDefault:"3"`

	CreditsDefaultGrant int  `env:"CREDITS_DEFAULT_GRANT" envDefault:"100"`
	CreditsLowThreshold int  `env:"CREDITS_LOW_THRESHOLD" envDefault:"10"`
	CreditsAtomicCharge bool `env:"CREDITS_ATOMIC_CHARGE" envDefault:"false"`

	AdminToken string `env:"ADMIN_TOKEN"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
