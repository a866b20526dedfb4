package printing

import "github.com/santabrisa/backend/internal/application/pipeline"

// defaultTemplates holds the built-in HTML templates per document kind.
var defaultTemplates = map[pipeline.DocumentKind]string{
	pipeline.DocumentKindDeliveryNote: deliveryNoteTemplate,
	pipeline.DocumentKindInvoice:      invoiceTemplate,
}

const deliveryNoteTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Albarán {{.Number}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
h1 { font-size: 1.4em; border-bottom: 2px solid #333; padding-bottom: 0.3em; }
table { width: 100%; border-collapse: collapse; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
th { background: #f4f4f4; }
.meta { color: #555; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Albarán {{.Number}}</h1>
<p class="meta">Fecha: {{formatDate .RenderedAt}}</p>
{{if .AccountName}}<p>Cliente: {{.AccountName}}</p>{{end}}
{{if .Lines}}
<table>
<tr><th>SKU</th><th>Descripción</th><th>Cantidad</th><th>Lote</th></tr>
{{range .Lines}}
<tr><td>{{.SKU}}</td><td>{{.Name}}</td><td>{{.Qty}}</td><td>{{.LotNumber}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>`

const invoiceTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Factura {{.Number}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
h1 { font-size: 1.4em; border-bottom: 2px solid #333; padding-bottom: 0.3em; }
table { width: 100%; border-collapse: collapse; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
th { background: #f4f4f4; }
.total { font-weight: bold; font-size: 1.1em; margin-top: 1em; }
.meta { color: #555; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Factura {{.Number}}</h1>
<p class="meta">Fecha: {{formatDate .RenderedAt}}</p>
{{if .AccountName}}<p>Cliente: {{.AccountName}}</p>{{end}}
{{if .Lines}}
<table>
<tr><th>SKU</th><th>Descripción</th><th>Cantidad</th><th>Precio</th><th>Importe</th></tr>
{{range .Lines}}
<tr><td>{{.SKU}}</td><td>{{.Name}}</td><td>{{.Qty}}</td><td>{{.UnitPrice}}</td><td>{{.Amount}}</td></tr>
{{end}}
</table>
{{end}}
{{if .Total}}<p class="total">Total: {{formatMoney .Total .Currency}}</p>{{end}}
</body>
</html>`
