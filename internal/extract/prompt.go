package extract

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

const systemPrompt = `You read API documentation and describe HTTP operations as strict JSON. Never add commentary.`

const endpointFields = `Each endpoint object has these fields:

- "title": the operation name as the document states it (string)
- "method": "GET" or "POST" (string, empty if unknown)
- "apiPath": the resource path without scheme or host, e.g. "/v1/orders" (string, empty if unknown)
- "requestExample": {"headers": {...}, "query": {...}, "body": {...}} built from the sample request or the request tables
- "responseExample": {"headers": {...}, "body": {...}} built from the sample response or the response tables
- "errorResponseExample": an error body if the document shows one (object or null)
- "requiredFields": dot paths into requestExample for mandatory fields, e.g. "body.orderId", "headers.X-Signature"
- "errorHttpStatus": HTTP status used for errors if the document states one (integer or null)

Rules:
- Use real values from the examples; fill table-only fields with plausible sample values
- Nested JSON goes in as objects, never as quoted strings
- Fields marked M, Mandatory or Required belong in requiredFields`

// BuildChunkPrompt asks for the single operation one chunk describes.
func BuildChunkPrompt(docTitle string, chunk string) string {
	var sb strings.Builder
	sb.WriteString("Extract the API operation described in the following document section.\n")
	sb.WriteString("Return ONE JSON object, or a JSON array when the section clearly describes several operations.\n\n")
	sb.WriteString(endpointFields)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Document: %q\n", docTitle))
	sb.WriteString("---\n")
	sb.WriteString(chunk)
	return sb.String()
}

// BuildDocumentPrompt asks for every operation in one window of a whole document.
func BuildDocumentPrompt(window string, index, total int) string {
	var sb strings.Builder
	sb.WriteString("Extract every API operation described in the following documentation.\n")
	sb.WriteString(`Return a JSON object {"items": [...]} with one endpoint object per operation. Return {"items": []} if there are none.`)
	sb.WriteString("\n\n")
	sb.WriteString(endpointFields)
	sb.WriteString("\n\n---\n")
	if total > 1 {
		sb.WriteString(fmt.Sprintf("Part %d of %d\n", index+1, total))
		sb.WriteString("---\n")
	}
	sb.WriteString(window)
	return sb.String()
}

// BuildRegeneratePrompt asks for a response tailored to one inbound request,
// shaped exactly like the stored example.
func BuildRegeneratePrompt(request, responseExample jsontree.Object) string {
	var sb strings.Builder
	sb.WriteString("Generate a mock API response for the request below.\n")
	sb.WriteString("Keep exactly the structure and field names of the example response. ")
	sb.WriteString("Echo request values into fields with matching names and invent realistic values for the rest.\n")
	sb.WriteString("Respond with ONLY the JSON object.\n\n")
	sb.WriteString("Request:\n")
	sb.WriteString(jsontree.Canonical(request))
	sb.WriteString("\n\nExample response:\n")
	sb.WriteString(jsontree.Canonical(responseExample))
	return sb.String()
}
