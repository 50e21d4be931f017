package report

import (
	"encoding/json"
	"html/template"
	"os"
	"sort"
	"time"

	"github.com/DrSkyle/assetline/pkg/lineage"
	"github.com/DrSkyle/assetline/pkg/version"
)

// DashboardData holds data for the HTML template.
type DashboardData struct {
	GeneratedAt string
	Version     string

	TotalAssets int
	TotalEvents int
	RootAssets  int
	LeafAssets  int

	Items []Item

	// Chart Data
	ChartLabelsJSON template.JS
	ChartValuesJSON template.JS
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Assetline // Lineage Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg: #050505;
            --surface: rgba(255, 255, 255, 0.03);
            --border: rgba(255, 255, 255, 0.1);
            --primary: #00FF99;
            --secondary: #874BFD;
            --danger: #FF3366;
            --text: #F8FAFC;
            --text-dim: #94A3B8;
        }

        * { box-sizing: border-box; }
        body {
            background: var(--bg);
            color: var(--text);
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
            margin: 0;
            padding: 40px;
            font-size: 14px;
        }

        .header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 40px;
            border-bottom: 1px solid var(--border);
            padding-bottom: 20px;
        }
        .logo { font-size: 1.5rem; font-weight: 700; letter-spacing: -1px; }
        .logo span { color: var(--primary); }
        .meta { color: var(--text-dim); }

        .kpi-grid {
            display: grid;
            grid-template-columns: repeat(4, 1fr);
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            padding: 24px;
        }
        .card h3 { margin: 0 0 10px 0; font-size: 0.75rem; color: var(--text-dim); text-transform: uppercase; letter-spacing: 1.2px; }
        .card .value { font-size: 2.5rem; font-weight: 700; }
        .card .value.accent { color: var(--primary); }

        .chart-container {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            padding: 24px;
            height: 350px;
            margin-bottom: 40px;
        }
        .chart-header { font-size: 0.85rem; font-weight: 600; margin-bottom: 16px; }
        .chart-body { position: relative; height: 280px; }

        .table-wrapper {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            overflow-x: auto;
        }
        table { width: 100%; border-collapse: collapse; min-width: 900px; }
        th, td { padding: 14px 20px; text-align: left; border-bottom: 1px solid var(--border); white-space: nowrap; }
        th {
            background: rgba(0,0,0,0.5);
            color: var(--text-dim);
            font-size: 0.75rem;
            text-transform: uppercase;
            font-weight: 600;
        }
        tr:last-child td { border-bottom: none; }
        td.key { font-family: monospace; color: var(--primary); }
        td.dim { color: var(--text-dim); }

        footer { margin-top: 60px; color: var(--text-dim); font-size: 0.8rem; text-align: center; border-top: 1px solid var(--border); padding-top: 20px; }
    </style>
</head>
<body>

    <div class="header">
        <div class="logo">ASSET<span>LINE</span>_REPORT</div>
        <div class="meta">Generated: {{.GeneratedAt}}</div>
    </div>

    <div class="kpi-grid">
        <div class="card">
            <h3>Tracked Assets</h3>
            <div class="value accent">{{.TotalAssets}}</div>
        </div>
        <div class="card">
            <h3>Lineage Events</h3>
            <div class="value">{{.TotalEvents}}</div>
        </div>
        <div class="card">
            <h3>Root Assets</h3>
            <div class="value">{{.RootAssets}}</div>
        </div>
        <div class="card">
            <h3>Leaf Assets</h3>
            <div class="value">{{.LeafAssets}}</div>
        </div>
    </div>

    <div class="chart-container">
        <div class="chart-header">Events by Asset</div>
        <div class="chart-body">
            <canvas id="eventChart"></canvas>
        </div>
    </div>

    <div class="table-wrapper">
        <table>
            <thead>
                <tr>
                    <th>Key</th>
                    <th>Name</th>
                    <th>Owners</th>
                    <th>Events</th>
                    <th>Last Work Unit</th>
                    <th>Last Event</th>
                    <th>Upstream</th>
                    <th>Downstream</th>
                </tr>
            </thead>
            <tbody>
                {{range .Items}}
                <tr>
                    <td class="key">{{.Key}}</td>
                    <td>{{.Name}}</td>
                    <td class="dim">{{range $i, $o := .Owners}}{{if $i}}, {{end}}{{$o}}{{end}}</td>
                    <td>{{.Events}}</td>
                    <td class="dim">{{.LastWorkUnit}}</td>
                    <td class="dim">{{.LastEventTime}}</td>
                    <td class="dim">{{len .Upstream}}</td>
                    <td class="dim">{{len .Downstream}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>

    <footer>
        Generated by assetline {{.Version}} | Local-First Lineage Tracker
    </footer>

    <script>
        const labels = {{.ChartLabelsJSON}};
        const values = {{.ChartValuesJSON}};

        const ctx = document.getElementById('eventChart').getContext('2d');
        new Chart(ctx, {
            type: 'doughnut',
            data: {
                labels: labels,
                datasets: [{
                    data: values,
                    backgroundColor: [
                        '#00FF99', '#874BFD', '#FF3366', '#3b82f6', '#f59e0b', '#10b981', '#ec4899', '#94A3B8'
                    ],
                    borderColor: '#050505',
                    borderWidth: 2,
                    hoverOffset: 10
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                cutout: '75%',
                plugins: {
                    legend: { position: 'right', labels: { color: '#94A3B8', padding: 16, font: { size: 11 } } }
                }
            }
        });
    </script>
</body>
</html>
`

// GenerateHTML renders the asset rollup as a standalone dashboard.
// Chart data reaches the page as JSON so hostile key or name strings
// cannot break out of the script block; the table rows rely on the
// template engine's own escaping.
func GenerateHTML(g *lineage.Graph, ignore *IgnoreList, path string) error {
	items := Items(g, ignore)

	data := DashboardData{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Version:     version.Current,
		TotalAssets: len(items),
		Items:       items,
	}
	for _, item := range items {
		data.TotalEvents += item.Events
		if len(item.Upstream) == 0 {
			data.RootAssets++
		}
		if len(item.Downstream) == 0 {
			data.LeafAssets++
		}
	}

	// Chart slices, busiest assets first. Everything past the top
	// eight collapses into one bucket so the legend stays readable.
	byEvents := append([]Item(nil), items...)
	sort.SliceStable(byEvents, func(i, j int) bool {
		return byEvents[i].Events > byEvents[j].Events
	})

	labels := []string{}
	values := []int{}
	for i, item := range byEvents {
		if i == 8 {
			rest := 0
			for _, r := range byEvents[i:] {
				rest += r.Events
			}
			labels = append(labels, "others")
			values = append(values, rest)
			break
		}
		label := item.Key
		if item.Name != "" {
			label = item.Name
		}
		labels = append(labels, label)
		values = append(values, item.Events)
	}

	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return err
	}
	data.ChartLabelsJSON = template.JS(labelsJSON)
	data.ChartValuesJSON = template.JS(valuesJSON)

	tmpl, err := template.New("dashboard").Parse(dashboardTemplate)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}
