package models

import "encore.dev/config"

// AppConfig holds the main application configuration
type AppConfig struct {
	// Temporal configuration
	Temporal TemporalConfig

	// External services configuration
	ExternalServices ExternalServicesConfig

	// Invoicing configuration
	Invoicing InvoicingConfig
}

// TemporalConfig holds Temporal workflow engine configuration
type TemporalConfig struct {
	// Connection settings
	Address   config.String
	Namespace config.String
	TaskQueue config.String

	// Workflow settings
	WorkflowExecutionTimeoutBuffer config.Int // in seconds
	ActivityStartToCloseTimeout    config.Int // in seconds
	ActivityRetryPolicy            ActivityRetryPolicy
}

// ActivityRetryPolicy holds Temporal activity retry configuration
type ActivityRetryPolicy struct {
	InitialInterval    config.Int // in seconds
	BackoffCoefficient config.Float64
	MaximumInterval    config.Int // in seconds
	MaximumAttempts    config.Int
}

// ExternalServicesConfig holds external service configuration
type ExternalServicesConfig struct {
	ExchangeRates ExchangeRatesConfig
}

// ExchangeRatesConfig holds exchange rate service configuration
type ExchangeRatesConfig struct {
	// API configuration
	BaseURL config.String

	// Cache configuration
	TTL      config.Int // in seconds
	CacheKey config.String

	// HTTP client configuration
	Timeout config.Int // in seconds

	// Currencies every invoice total is also reported in
	ReportingCurrencies config.Values[string]
}

// InvoicingConfig holds invoicing-specific configuration
type InvoicingConfig struct {
	Validation ValidationConfig
	Workflow   WorkflowConfig
	Terms      TermsConfig
}

// ValidationConfig holds validation rule configuration
type ValidationConfig struct {
	// Line item constraints
	MaxLineItems         config.Int
	MaxDescriptionLength config.Int
	MaxQuantity          config.Float64
	MaxUnitPrice         config.Float64
	MaxTotalAmount       config.Float64
	AllowedCurrencies    config.Values[string]

	// Business constraints
	MaxBusinessNameLength config.Int
}

// WorkflowConfig holds invoice lifecycle workflow configuration
type WorkflowConfig struct {
	WorkflowIDPrefix config.String

	// Days between late fee re-assessments when compound interest is enabled
	CompoundPeriodDays config.Int

	// Upper bound of the workflow run past the due date, in days
	MaxCollectionDays config.Int
}

// TermsConfig holds payment term defaults
type TermsConfig struct {
	// Due date offset used for CUSTOM terms
	CustomDueDays config.Int

	// Early discount tier selection policy: "best" or "first"
	TierPolicy config.String
}
