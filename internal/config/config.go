package config

type Config struct {
	Environment Environment
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RabbitMQURL string `env:"RABBITMQ_URL"`

	JWT         JWT         `envPrefix:"JWT_"`
	Flutterwave Flutterwave `envPrefix:"FLW_"`
	Mpesa       Mpesa       `envPrefix:"MPESA_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type JWT struct {
	Secret   string `env:"SECRET"`
	TTLHours int    `env:"TTL_HOURS" envDefault:"72"`
}

type Flutterwave struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.flutterwave.com/v3"`
	SecretKey  string `env:"SECRET_KEY"`
}

type Mpesa struct {
	BaseApiURL     string `env:"BASE_API_URL" envDefault:"https://sandbox.safaricom.co.ke"`
	ConsumerKey    string `env:"CONSUMER_KEY"`
	ConsumerSecret string `env:"CONSUMER_SECRET"`
	ShortCode      string `env:"SHORTCODE"`
	Passkey        string `env:"PASSKEY"`
}
