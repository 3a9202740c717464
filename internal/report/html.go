package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Amr-9/rrt/pkg/models"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>rrt Test Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 50%, #0f3460 100%);
            min-height: 100vh;
            color: #e0e0e0;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
        }
        .header {
            text-align: center;
            margin-bottom: 40px;
            padding: 30px;
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
        }
        .header h1 {
            font-size: 2.6rem;
            background: linear-gradient(90deg, #00d9ff, #ff00ff);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
            margin-bottom: 10px;
        }
        .header p {
            color: #888;
        }
        .aborted {
            margin-top: 15px;
            color: #ff4757;
            font-weight: bold;
        }
        .summary-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .summary-card {
            background: rgba(255,255,255,0.08);
            border-radius: 15px;
            padding: 25px;
            text-align: center;
            border: 1px solid rgba(255,255,255,0.1);
        }
        .summary-card .value {
            font-size: 2.2rem;
            font-weight: bold;
            color: #00d9ff;
        }
        .summary-card .label {
            color: #888;
            margin-top: 10px;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 1px;
        }
        .charts-grid {
            display: grid;
            grid-template-columns: repeat(2, 1fr);
            gap: 30px;
            margin-bottom: 40px;
        }
        @media (max-width: 1200px) {
            .charts-grid {
                grid-template-columns: 1fr;
            }
        }
        .chart-container, .cases-table {
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
            padding: 25px;
            border: 1px solid rgba(255,255,255,0.1);
            margin-bottom: 30px;
        }
        .chart-container h3, .cases-table h3 {
            margin-bottom: 20px;
            color: #00d9ff;
        }
        .chart-wrapper {
            position: relative;
            height: 280px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
        }
        th, td {
            padding: 12px;
            text-align: left;
            border-bottom: 1px solid rgba(255,255,255,0.1);
        }
        th {
            color: #00d9ff;
            text-transform: uppercase;
            font-size: 0.85rem;
        }
        td.reason {
            font-family: monospace;
            color: #ff6b81;
        }
        .badge {
            padding: 4px 12px;
            border-radius: 20px;
            font-weight: bold;
            font-size: 0.8rem;
        }
        .Passed { background: #00ff88; color: #1a1a2e; }
        .Failed { background: #ff4757; color: white; }
        .Cancelled { background: #666; color: white; }
        .Fast { color: #00ff88; }
        .Moderate { color: #ffd32a; }
        .Slow, .TimedOut { color: #ff4757; }
        .footer {
            text-align: center;
            padding: 30px;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>rrt Test Report</h1>
            <p>Generated at {{.GeneratedAt}}</p>
            <p><a href="{{.APIAddress}}" style="color: #fff;">{{.APIAddress}}</a> • {{.Duration}}</p>
            {{if .AbortedBy}}<div class="aborted">Run aborted: critical test "{{.AbortedBy}}" failed</div>{{end}}
        </div>

        <div class="summary-grid">
            <div class="summary-card">
                <div class="value">{{.Tally.Passed}} / {{.Tally.Total}}</div>
                <div class="label">Passed</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.Tally.Failed}}</div>
                <div class="label">Failed</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.Tally.Cancelled}}</div>
                <div class="label">Cancelled</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.Min}}</div>
                <div class="label">Min Response</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.P50}}</div>
                <div class="label">P50 Response</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.P99}}</div>
                <div class="label">P99 Response</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.Max}}</div>
                <div class="label">Max Response</div>
            </div>
        </div>

        <div class="charts-grid">
            <div class="chart-container">
                <h3>Outcomes</h3>
                <div class="chart-wrapper">
                    <canvas id="outcomeChart"></canvas>
                </div>
            </div>
            <div class="chart-container">
                <h3>Response Time per Test (ms)</h3>
                <div class="chart-wrapper">
                    <canvas id="elapsedChart"></canvas>
                </div>
            </div>
        </div>

        <div class="cases-table">
            <h3>Tests</h3>
            <table>
                <thead>
                    <tr>
                        <th>#</th>
                        <th>Test</th>
                        <th>Request</th>
                        <th>Expected</th>
                        <th>Actual</th>
                        <th>Time</th>
                        <th>Outcome</th>
                        <th>Reason</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Cases}}
                    <tr>
                        <td>{{.Number}}</td>
                        <td>{{.Description}}{{if .Critical}} <strong>(critical)</strong>{{end}}</td>
                        <td>{{.Method}} {{.URL}}</td>
                        <td>{{.Expected}}</td>
                        <td>{{.Actual}}</td>
                        <td class="{{.TimeClass}}">{{.Elapsed}}</td>
                        <td><span class="badge {{.Outcome}}">{{.Outcome}}</span></td>
                        <td class="reason">{{.Reason}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        {{if .Errors}}
        <div class="cases-table">
            <h3 style="color: #ff4757;">Failure Reasons</h3>
            <table>
                <thead>
                    <tr>
                        <th>Reason</th>
                        <th>Count</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Errors}}
                    <tr>
                        <td class="reason">{{.Message}}</td>
                        <td>{{.Count}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="footer">
            <p>Generated by rrt - REST regression tester</p>
        </div>
    </div>

    <script>
        Chart.defaults.color = '#888';
        Chart.defaults.borderColor = 'rgba(255,255,255,0.1)';

        new Chart(document.getElementById('outcomeChart'), {
            type: 'doughnut',
            data: {
                labels: ['Passed', 'Failed', 'Cancelled'],
                datasets: [{
                    data: [{{.Tally.Passed}}, {{.Tally.Failed}}, {{.Tally.Cancelled}}],
                    backgroundColor: ['#00ff88', '#ff4757', '#666666']
                }]
            },
            options: { responsive: true, maintainAspectRatio: false }
        });

        new Chart(document.getElementById('elapsedChart'), {
            type: 'bar',
            data: {
                labels: [{{.ElapsedLabels}}],
                datasets: [{
                    label: 'ms',
                    data: [{{.ElapsedData}}],
                    backgroundColor: '#00d9ff'
                }]
            },
            options: { responsive: true, maintainAspectRatio: false }
        });
    </script>
</body>
</html>
`

// CaseRow is one line of the tests table
type CaseRow struct {
	Number      int
	Description string
	Critical    bool
	Method      string
	URL         string
	Expected    int
	Actual      string
	Elapsed     string
	TimeClass   models.TimeClass
	Outcome     models.Outcome
	Reason      string
}

// ErrorRow represents an error entry
type ErrorRow struct {
	Message string
	Count   int
}

// TemplateData holds all data for the HTML template
type TemplateData struct {
	GeneratedAt   string
	APIAddress    string
	Duration      string
	AbortedBy     string
	Tally         models.Tally
	Min           string
	P50           string
	P99           string
	Max           string
	Cases         []CaseRow
	Errors        []ErrorRow
	ElapsedLabels template.JS
	ElapsedData   template.JS
}

// WriteHTML renders the summary as a standalone HTML page.
func WriteHTML(w io.Writer, summary *models.RunSummary) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var labels, elapsed []string
	rows := make([]CaseRow, 0, len(summary.Results))
	for _, r := range summary.Results {
		row := CaseRow{
			Number:      r.Index + 1,
			Description: r.Description,
			Critical:    r.Critical,
			Method:      r.Method,
			URL:         r.URL,
			Expected:    r.ExpectedStatus,
			Actual:      "-",
			Elapsed:     "-",
			TimeClass:   r.TimeClass,
			Outcome:     r.Outcome,
			Reason:      r.Reason,
		}
		if r.Responded() {
			row.Actual = fmt.Sprintf("%d", r.Status)
		}
		if r.Outcome != models.Cancelled {
			row.Elapsed = formatDuration(r.Elapsed)
			labels = append(labels, fmt.Sprintf("'#%d'", r.Index+1))
			elapsed = append(elapsed, fmt.Sprintf("%.2f", float64(r.Elapsed.Microseconds())/1000))
		}
		rows = append(rows, row)
	}

	var errorRows []ErrorRow
	for msg, count := range summary.Errors {
		errorRows = append(errorRows, ErrorRow{Message: msg, Count: count})
	}
	// Sort errors by count desc
	sort.Slice(errorRows, func(i, j int) bool {
		if errorRows[i].Count != errorRows[j].Count {
			return errorRows[i].Count > errorRows[j].Count
		}
		return errorRows[i].Message < errorRows[j].Message
	})

	data := TemplateData{
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		APIAddress:    summary.APIAddress,
		Duration:      formatDuration(summary.Duration),
		AbortedBy:     summary.AbortedBy(),
		Tally:         summary.Tally,
		Min:           formatDuration(summary.Latency.Min),
		P50:           formatDuration(summary.Latency.P50),
		P99:           formatDuration(summary.Latency.P99),
		Max:           formatDuration(summary.Latency.Max),
		Cases:         rows,
		Errors:        errorRows,
		ElapsedLabels: template.JS(strings.Join(labels, ",")),
		ElapsedData:   template.JS(strings.Join(elapsed, ",")),
	}

	return tmpl.Execute(w, data)
}

// SaveHTML writes the HTML report to filename.
func SaveHTML(summary *models.RunSummary, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteHTML(file, summary); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync report file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.0fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
