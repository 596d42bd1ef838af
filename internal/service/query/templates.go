package query

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Templates holds the canned SQL behind each analytics endpoint. Queries are
// fixed strings, not parameterized — the frontend never supplies SQL.
type Templates struct {
	Latest      string `yaml:"latest"`
	AvgMetrics  string `yaml:"avg_metrics"`
	MaxMetrics  string `yaml:"max_metrics"`
	AlertCounts string `yaml:"alert_counts"`
	HumidityCO  string `yaml:"humidity_co"`
	TempDist    string `yaml:"temp_dist"`
}

// DefaultTemplates returns the built-in query set over the processed
// telemetry table.
func DefaultTemplates() Templates {
	return Templates{
		Latest: `
WITH ranked AS (
    SELECT
        device, co, smoke, temp, humidity, lpg,
        CAST(to_unixtime(ts) AS BIGINT) as ts,
        ROW_NUMBER() OVER (PARTITION BY device ORDER BY ts DESC) as rn
    FROM processed
)
SELECT device, device AS device_id, co, smoke, temp, humidity, lpg, ts
FROM ranked
WHERE rn <= 20;
`,
		AvgMetrics: `
SELECT device,
       AVG(co) AS avg_co,
       AVG(smoke) AS avg_smoke,
       AVG(temp) AS avg_temp
FROM processed
GROUP BY device
`,
		MaxMetrics: `
SELECT device,
       MAX(co) AS max_co,
       MAX(smoke) AS max_smoke,
       MAX(temp) AS max_temp
FROM processed
GROUP BY device
`,
		AlertCounts: `
SELECT device,
       SUM(CASE WHEN co >= 0.120 THEN 1 ELSE 0 END) AS co_alerts
FROM processed
GROUP BY device
`,
		HumidityCO: `
SELECT humidity, AVG(co) AS avg_co
FROM processed
GROUP BY humidity
ORDER BY humidity
`,
		TempDist: `
SELECT temp, COUNT(*) AS count
FROM processed
GROUP BY temp
ORDER BY temp
`,
	}
}

// LoadTemplates returns the defaults overlaid with any queries set in the
// YAML file at path. An empty path means defaults only.
func LoadTemplates(path string) (Templates, error) {
	tmpl := DefaultTemplates()
	if path == "" {
		return tmpl, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return tmpl, fmt.Errorf("read query templates %s: %w", path, err)
	}

	var override Templates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return tmpl, fmt.Errorf("parse query templates %s: %w", path, err)
	}

	if override.Latest != "" {
		tmpl.Latest = override.Latest
	}
	if override.AvgMetrics != "" {
		tmpl.AvgMetrics = override.AvgMetrics
	}
	if override.MaxMetrics != "" {
		tmpl.MaxMetrics = override.MaxMetrics
	}
	if override.AlertCounts != "" {
		tmpl.AlertCounts = override.AlertCounts
	}
	if override.HumidityCO != "" {
		tmpl.HumidityCO = override.HumidityCO
	}
	if override.TempDist != "" {
		tmpl.TempDist = override.TempDist
	}
	return tmpl, nil
}
