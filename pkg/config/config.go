// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App       AppConfig       `koanf:"app"`
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Services  ServicesConfig  `koanf:"services"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Showcase  ShowcaseConfig  `koanf:"showcase"`
	Export    ExportConfig    `koanf:"export"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig - настройки HTTP сервера
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORS            CORSConfig    `koanf:"cors"`
}

// CORSConfig - настройки CORS
type CORSConfig struct {
	Enabled          bool     `koanf:"enabled"`
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// ServicesConfig - адреса внешних сервисов
type ServicesConfig struct {
	Resonance ServiceEndpoint `koanf:"resonance"`
}

// ServiceEndpoint - конфигурация подключения к сервису
type ServiceEndpoint struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	BasePath     string        `koanf:"base_path"`
	Scheme       string        `koanf:"scheme"` // http, https
	Timeout      time.Duration `koanf:"timeout"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	APIKey       string        `koanf:"api_key"`
}

// Address возвращает полный адрес сервиса
func (s ServiceEndpoint) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL возвращает базовый URL сервиса
func (s ServiceEndpoint) BaseURL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, s.Host, s.Port, s.BasePath)
}

// CacheConfig - настройки кэширования
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig конфигурация rate limiting
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Strategy        string        `koanf:"strategy"`
	Backend         string        `koanf:"backend"`
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	RedisAddr       string        `koanf:"redis_addr"`
}

// Политики реакции на ошибку удалённого решателя
const (
	OnSolveErrorFallback = "fallback" // подставить детерминированное решение
	OnSolveErrorSurface  = "surface"  // вернуть ошибку вызывающему
)

// ShowcaseConfig конфигурация демонстрационного оркестратора
type ShowcaseConfig struct {
	// Сессии
	SessionTTL      time.Duration `koanf:"session_ttl"`      // время жизни неактивной сессии
	MaxSessions     int           `koanf:"max_sessions"`     // максимум одновременных сессий
	CleanupInterval time.Duration `koanf:"cleanup_interval"` // интервал уборки сессий

	// Прогресс оптимизации
	ProgressTick time.Duration `koanf:"progress_tick"` // шаг анимации прогресса
	ProgressStep float64       `koanf:"progress_step"` // инкремент за тик, %
	ProgressCap  float64       `koanf:"progress_cap"`  // потолок до ответа решателя, %

	// Поведение при ошибке удалённого решателя: fallback, surface
	OnSolveError string `koanf:"on_solve_error"`

	// Генерация
	EnsureFeasible bool  `koanf:"ensure_feasible"` // гарантировать достижимость цели subset-sum
	DefaultSeed    int64 `koanf:"default_seed"`    // 0 = время
}

// ExportConfig конфигурация экспорта результатов
type ExportConfig struct {
	MaxCitiesInTable  int  `koanf:"max_cities_in_table"`  // максимум городов в таблице маршрута
	MaxWeightsInTable int  `koanf:"max_weights_in_table"` // максимум весов в таблице subset-sum
	IncludeMatrix     bool `koanf:"include_matrix"`       // включать матрицу расстояний

	// PDF генерация
	PDF PDFConfig `koanf:"pdf"`

	DefaultCompanyName string `koanf:"default_company_name"`
}

// PDFConfig конфигурация PDF генератора
type PDFConfig struct {
	PageSize          string  `koanf:"page_size"`        // A4, Letter, Legal
	Orientation       string  `koanf:"orientation"`      // portrait, landscape
	MarginTop         float64 `koanf:"margin_top"`       // mm
	MarginBottom      float64 `koanf:"margin_bottom"`    // mm
	MarginLeft        float64 `koanf:"margin_left"`      // mm
	MarginRight       float64 `koanf:"margin_right"`     // mm
	FontFamily        string  `koanf:"font_family"`
	FontSize          float64 `koanf:"font_size"`        // pt
	HeaderFontSize    float64 `koanf:"header_font_size"` // pt
	EnablePageNumbers bool    `koanf:"enable_page_numbers"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	// Валидация Showcase config
	validPolicies := map[string]bool{"fallback": true, "surface": true}
	if c.Showcase.OnSolveError != "" && !validPolicies[c.Showcase.OnSolveError] {
		errs = append(errs, fmt.Sprintf("showcase.on_solve_error must be one of: fallback, surface, got %s", c.Showcase.OnSolveError))
	}

	if c.Showcase.ProgressCap <= 0 || c.Showcase.ProgressCap > 100 {
		errs = append(errs, fmt.Sprintf("showcase.progress_cap must be in (0, 100], got %.1f", c.Showcase.ProgressCap))
	}

	if c.Showcase.ProgressStep <= 0 {
		errs = append(errs, fmt.Sprintf("showcase.progress_step must be positive, got %.1f", c.Showcase.ProgressStep))
	}

	validPageSizes := map[string]bool{"A4": true, "Letter": true, "Legal": true, "A3": true}
	if c.Export.PDF.PageSize != "" && !validPageSizes[c.Export.PDF.PageSize] {
		errs = append(errs, fmt.Sprintf("export.pdf.page_size must be one of: A4, Letter, Legal, A3, got %s", c.Export.PDF.PageSize))
	}

	validOrientations := map[string]bool{"portrait": true, "landscape": true}
	if c.Export.PDF.Orientation != "" && !validOrientations[c.Export.PDF.Orientation] {
		errs = append(errs, fmt.Sprintf("export.pdf.orientation must be one of: portrait, landscape, got %s", c.Export.PDF.Orientation))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
