package config

type (
	DriverConfig struct {
		PostgresDB PostgresDB
		MongoDB    MongoDB
		Redis      Redis
		RabbitMQ   RabbitMQ
		Logger     Logger
	}

	PostgresDB struct {
		Host     string
		Port     string
		DBName   string
		Username string
		Password string
	}
	MongoDB struct {
		Host       string
		Port       string
		DbName     string
		Username   string
		Password   string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Logger struct {
		Level               string
		OutputFileName      string
		OutputErrorFileName string
	}

	InternalConfig struct {
		App            App
		JWT            JWT
		PaymentGateway PaymentGateway
		Audit          Audit
	}

	App struct {
		Env                       string
		Port                      string
		Version                   string
		Address                   string
		Timezone                  string
		EndpointPrefix            string
		MaxRequests               int
		ShutdownTimeout           int
		SettingsCacheTTLInMinutes int
	}

	JWT struct {
		Secret        string
		ExpTimeInHour int
	}

	PaymentGateway struct {
		BaseUrl          string
		TimeoutInSeconds int
	}

	Audit struct {
		QueueName      string
		DeadLetterName string
		Prefetch       int
		MongoDatabase  string
		MongoCollection string
	}
)
