// Package printing turns report and document data into PDF files.
//
// Documents are rendered to HTML with html/template using French number
// and date formatting, then printed to A4 PDF through headless Chrome:
//
//	engine, _ := printing.NewTemplateEngine()
//	html, _ := engine.RenderDocument(doc)
//	result, err := renderer.Render(ctx, &printing.RenderRequest{HTML: html, Title: doc.Title})
package printing
