package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	JWTSecret      string
	ListenAddr     string
	DatabaseURL    string
	DatabaseConfig DatabaseConfig
	MailgunConfig  MailgunConfig
	AppEnv         string // Окружение приложения
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// MailgunConfig содержит конфигурацию для отправки почтовых уведомлений
type MailgunConfig struct {
	Domain      string
	APIKey      string
	SenderEmail string
	SenderName  string
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "vachaar_user"),
		Password: getEnv("PGPASSWORD", "vachaar_pass"),
		Name:     getEnv("PGDATABASE", "vachaar"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	mailgunConfig := MailgunConfig{
		Domain:      getEnv("MAILGUN_DOMAIN", ""),
		APIKey:      getEnv("MAILGUN_API_KEY", ""),
		SenderEmail: getEnv("MAILGUN_SENDER_EMAIL", "no-reply@vachaar.app"),
		SenderName:  getEnv("MAILGUN_SENDER_NAME", "Vachaar"),
	}

	cfg := &Config{
		JWTSecret:      getEnv("JWT_SECRET", ""),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL:    dbURL,
		DatabaseConfig: dbConfig,
		MailgunConfig:  mailgunConfig,
		AppEnv:         getEnv("APP_ENV", "production"), // По умолчанию production
	}

	if cfg.JWTSecret == "" {
		log.Fatal("❌ Ошибка: Не задана переменная окружения JWT_SECRET")
	}

	return cfg
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
