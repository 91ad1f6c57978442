package repository

// Schema definitions for the Peregrine database.
// Compatible with both SQLite and PostgreSQL.

const schemaScans = `
CREATE TABLE IF NOT EXISTS scans (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    candidate_name TEXT NOT NULL,
    candidate_email TEXT NOT NULL,
    domain TEXT NOT NULL,
    target_role TEXT,
    created_at TIMESTAMP NOT NULL,
    request TEXT
);

CREATE INDEX IF NOT EXISTS idx_scans_tenant ON scans(tenant_id);
CREATE INDEX IF NOT EXISTS idx_scans_email ON scans(tenant_id, candidate_email);
CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(tenant_id, created_at);
`

const schemaRuleConfigs = `
CREATE TABLE IF NOT EXISTS rule_configs (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    expression TEXT NOT NULL,
    bands TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 1.0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id, version)
);

CREATE INDEX IF NOT EXISTS idx_rule_configs_tenant ON rule_configs(tenant_id);
CREATE INDEX IF NOT EXISTS idx_rule_configs_enabled ON rule_configs(tenant_id, enabled);
`

// schemaReports stores the full scoring report as JSON alongside the
// columns queried by the API and the benchmark tooling.
const schemaReports = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    scan_id TEXT NOT NULL,
    hiring_index REAL NOT NULL,
    fraud_probability REAL NOT NULL,
    risk_label TEXT NOT NULL,
    report_hash TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    report TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_tenant ON reports(tenant_id);
CREATE INDEX IF NOT EXISTS idx_reports_scan ON reports(tenant_id, scan_id);
CREATE INDEX IF NOT EXISTS idx_reports_risk ON reports(tenant_id, risk_label);
CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(tenant_id, timestamp);
`

// schemaPolicies defines the policies table.
// Policies group multiple screening rules with weights to calculate
// composite flag scores.
const schemaPolicies = `
CREATE TABLE IF NOT EXISTS policies (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    rules TEXT NOT NULL,
    alert_threshold REAL NOT NULL DEFAULT 0.6,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id, version)
);

CREATE INDEX IF NOT EXISTS idx_policies_tenant ON policies(tenant_id);
CREATE INDEX IF NOT EXISTS idx_policies_enabled ON policies(tenant_id, enabled);
CREATE INDEX IF NOT EXISTS idx_policies_name ON policies(tenant_id, name);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaScans,
		schemaRuleConfigs,
		schemaReports,
		schemaPolicies,
	}
}
