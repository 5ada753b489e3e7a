package store

// schemaStatements is executed one statement at a time so every driver accepts it.
// Column types are limited to those all three dialects understand.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
    id                   VARCHAR(64) PRIMARY KEY,
    registered_at        VARCHAR(10) NOT NULL,
    status               VARCHAR(16) NOT NULL,
    churned_at           VARCHAR(10),
    plan_type            VARCHAR(16) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS monthly_actuals (
    month_key            VARCHAR(7) PRIMARY KEY,
    new_acquisitions     BIGINT NOT NULL,
    mrr                  DOUBLE PRECISION NOT NULL,
    churn_count          BIGINT NOT NULL,
    expenses             DOUBLE PRECISION NOT NULL,
    total_customers      BIGINT NOT NULL,
    updated_at           VARCHAR(32) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS channel_actuals (
    month_key            VARCHAR(7) NOT NULL,
    channel              VARCHAR(128) NOT NULL,
    acquisitions         BIGINT NOT NULL,
    cpa                  DOUBLE PRECISION NOT NULL,
    cost                 DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (month_key, channel)
)`,
	`CREATE TABLE IF NOT EXISTS daily_reports (
    day_key              VARCHAR(10) PRIMARY KEY,
    id                   VARCHAR(36) NOT NULL,
    month_key            VARCHAR(7) NOT NULL,
    new_acquisitions     BIGINT NOT NULL,
    revenue              DOUBLE PRECISION NOT NULL,
    expenses             DOUBLE PRECISION NOT NULL,
    updated_at           VARCHAR(32) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS daily_channel_reports (
    day_key              VARCHAR(10) NOT NULL,
    channel              VARCHAR(128) NOT NULL,
    acquisitions         BIGINT NOT NULL,
    cost                 DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (day_key, channel)
)`,
	`CREATE TABLE IF NOT EXISTS targets (
    month_key            VARCHAR(7) NOT NULL,
    metric               VARCHAR(64) NOT NULL,
    target_value         DOUBLE PRECISION NOT NULL,
    unit                 VARCHAR(16) NOT NULL,
    PRIMARY KEY (month_key, metric)
)`,
}

// indexStatements use IF NOT EXISTS, which MySQL lacks; they are skipped there.
var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_customers_registered ON customers(registered_at)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_reports_month ON daily_reports(month_key)`,
}
