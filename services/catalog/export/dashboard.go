package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/codes"
)

// the dashboard is a static shell, it fetches catalog.yml and
// metrics.yml next to itself at view time so re-exporting data never
// requires regenerating it.
const dashboardHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>boothlist catalog</title>
<script src="https://cdn.jsdelivr.net/npm/js-yaml@4/dist/js-yaml.min.js"></script>
<style>
body { font-family: sans-serif; margin: 2rem; background: #fafafa; }
h1 { font-size: 1.4rem; }
.summary { display: flex; gap: 1rem; flex-wrap: wrap; margin-bottom: 1.5rem; }
.card { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 0.8rem 1.2rem; }
.card .num { font-size: 1.6rem; font-weight: bold; }
table { border-collapse: collapse; background: #fff; width: 100%; margin-bottom: 2rem; }
th, td { border: 1px solid #ddd; padding: 0.4rem 0.7rem; text-align: left; font-size: 0.9rem; }
th { background: #f0f0f0; }
img.thumb { height: 48px; }
.type { display: inline-block; padding: 0.1rem 0.5rem; border-radius: 999px; background: #e8eefc; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>boothlist catalog</h1>
<div class="summary" id="summary"></div>
<h2>items</h2>
<table id="items">
<thead><tr><th></th><th>id</th><th>name</th><th>type</th><th>shop</th><th>price</th><th>targets</th><th>variants</th></tr></thead>
<tbody></tbody>
</table>
<script>
async function loadYaml(path) {
  const res = await fetch(path);
  if (!res.ok) throw new Error(path + ": " + res.status);
  return jsyaml.load(await res.text());
}
function card(label, value) {
  return '<div class="card"><div class="num">' + value + '</div><div>' + label + '</div></div>';
}
(async () => {
  try {
    const [catalog, metrics] = await Promise.all([loadYaml("catalog.yml"), loadYaml("metrics.yml")]);
    const s = metrics.summary || {};
    document.getElementById("summary").innerHTML =
      card("items", s.items_total ?? 0) +
      card("variants", s.variants_total ?? 0) +
      card("shops", s.shops_total ?? 0) +
      card("avatars", s.avatars_supported ?? 0) +
      card("total ¥", (s.price_stats || {}).total_value ?? 0);
    const tbody = document.querySelector("#items tbody");
    for (const item of catalog.items || []) {
      const tr = document.createElement("tr");
      tr.innerHTML =
        "<td>" + (item.image_url ? '<img class="thumb" src="' + item.image_url + '">' : "") + "</td>" +
        '<td><a href="' + (item.url || "#") + '">' + item.item_id + "</a></td>" +
        "<td>" + (item.name || "") + "</td>" +
        '<td><span class="type">' + item.type + "</span></td>" +
        "<td>" + (item.shop_name || "") + "</td>" +
        "<td>" + (item.current_price ?? "") + "</td>" +
        "<td>" + (item.targets || []).map(t => t.name).join(", ") + "</td>" +
        "<td>" + (item.variants || []).length + "</td>";
      tbody.appendChild(tr);
    }
  } catch (err) {
    document.body.insertAdjacentHTML("beforeend", "<p>failed to load data: " + err + "</p>");
  }
})();
</script>
</body>
</html>
`

// WriteDashboard writes the static dashboard next to the yaml files.
func WriteDashboard(ctx context.Context, path string) error {
	ctx, span := tracer.Start(ctx, "WriteDashboard")
	defer span.End()

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err == nil {
		err = os.WriteFile(path, []byte(dashboardHTML), 0o644)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write dashboard")
		return err
	}
	slog.InfoContext(ctx, "exported dashboard", "path", path)
	return nil
}
