package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the scan station.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// RedisURL is the connection URL for the station-local Redis store.
	RedisURL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`

	// Shopify holds the order platform API configuration.
	Shopify ShopifyConfig `mapstructure:",squash"`

	// Carrier holds the carrier API configuration.
	Carrier CarrierConfig `mapstructure:",squash"`

	// PrintNode holds the print service configuration.
	PrintNode PrintNodeConfig `mapstructure:",squash"`

	// Booking holds the scan/booking behaviour knobs.
	Booking BookingConfig `mapstructure:",squash"`

	// Origin holds the fixed station shipping profile.
	Origin OriginConfig `mapstructure:",squash"`
}

// ShopifyConfig holds the credentials for the order platform.
// Token acquisition is out of scope; a pre-issued admin token is expected.
type ShopifyConfig struct {
	// BaseURL is the admin API base, e.g. https://mystore.myshopify.com.
	BaseURL string `mapstructure:"SHOPIFY_BASE_URL" required:"true"`
	// AccessToken is the admin API access token.
	AccessToken string `mapstructure:"SHOPIFY_TOKEN" required:"true"`
	// APIVersion is the admin API version segment.
	APIVersion string `mapstructure:"SHOPIFY_API_VERSION" default:"2025-10"`
}

// CarrierConfig holds the carrier quoting/booking API configuration.
type CarrierConfig struct {
	// BaseURL is the carrier JSON endpoint.
	BaseURL string `mapstructure:"CARRIER_BASE_URL" required:"true"`
	// Token is the carrier session token appended to every call.
	Token string `mapstructure:"CARRIER_TOKEN"`
	// Account is the carrier account number used for place search.
	Account string `mapstructure:"CARRIER_ACCOUNT"`
}

// PrintNodeConfig holds the print service configuration.
type PrintNodeConfig struct {
	// BaseURL is the print service API base.
	BaseURL string `mapstructure:"PRINTNODE_URL" default:"https://api.printnode.com"`
	// APIKey authenticates print job submissions.
	APIKey string `mapstructure:"PRINTNODE_API_KEY"`
	// PrinterID selects the station label printer.
	PrinterID int `mapstructure:"PRINTNODE_PRINTER_ID"`
}

// BookingConfig holds scan-session and booking behaviour settings.
type BookingConfig struct {
	// IdleMillis is the idle window after the last scan before auto-commit.
	IdleMillis int `mapstructure:"BOOKING_IDLE_MS" default:"6000"`
	// ServicePreference is the comma-separated ordered service fallback list.
	ServicePreference string `mapstructure:"SERVICE_PREFERENCE" default:"RFX,ECO,RDF"`
	// CostAlertThreshold marks quotes above this amount for operator attention.
	CostAlertThreshold float64 `mapstructure:"COST_ALERT_THRESHOLD" default:"250"`
	// BoxDim1, BoxDim2 and BoxDim3 are the default parcel dimensions in cm.
	BoxDim1 int `mapstructure:"BOX_DIM1" default:"40"`
	BoxDim2 int `mapstructure:"BOX_DIM2" default:"40"`
	BoxDim3 int `mapstructure:"BOX_DIM3" default:"30"`
	// BoxMassKg is the default per-parcel mass when the order carries no weight.
	BoxMassKg float64 `mapstructure:"BOX_MASS_KG" default:"5"`
}

// OriginConfig is the fixed shipping origin profile for the station.
type OriginConfig struct {
	Name      string `mapstructure:"ORIGIN_NAME" required:"true"`
	Address1  string `mapstructure:"ORIGIN_ADDRESS1" required:"true"`
	Address2  string `mapstructure:"ORIGIN_ADDRESS2"`
	Address3  string `mapstructure:"ORIGIN_ADDRESS3"`
	Town      string `mapstructure:"ORIGIN_TOWN" required:"true"`
	Postal    string `mapstructure:"ORIGIN_POSTAL" required:"true"`
	PlaceCode int    `mapstructure:"ORIGIN_PLACE_CODE" required:"true"`
	Contact   string `mapstructure:"ORIGIN_CONTACT"`
	Phone     string `mapstructure:"ORIGIN_PHONE"`
	Email     string `mapstructure:"ORIGIN_EMAIL"`
	Notes     string `mapstructure:"ORIGIN_NOTES"`
}

// ServicePreferenceList returns the ordered service codes from the config string.
func (c BookingConfig) ServicePreferenceList() []string {
	parts := strings.Split(c.ServicePreference, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
