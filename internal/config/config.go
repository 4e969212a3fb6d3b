package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion       string
	SQSGateQueueURL string
	IoTMQTTEndpoint string
	IoTTopicPrefix  string

	JWTSecret     string
	JWTExpiration time.Duration

	FacilityName    string
	PhotoStorageDir string
	PrinterDevice   string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", "parking"),
		DBName:     getEnv("DB_NAME", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:       getEnv("AWS_REGION", "ap-southeast-1"),
		SQSGateQueueURL: getEnv("SQS_GATE_QUEUE_URL", ""),
		IoTMQTTEndpoint: getEnv("IOT_MQTT_ENDPOINT", ""),
		IoTTopicPrefix:  getEnv("IOT_TOPIC_PREFIX", "parking"),

		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		JWTExpiration: time.Duration(jwtExpHours) * time.Hour,

		FacilityName:    getEnv("FACILITY_NAME", "Parking Facility"),
		PhotoStorageDir: getEnv("PHOTO_STORAGE_DIR", "uploads/entry_photos"),
		PrinterDevice:   getEnv("PRINTER_DEVICE", ""),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("environment variable '%s' not set, using default: '%s'", key, fallback)
	return fallback
}
