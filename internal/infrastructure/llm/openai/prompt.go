package openai

const systemPrompt = `You are an expert at extracting financial transaction data from receipt text.
Analyze the OCR text and extract transaction information.

Categories available (use exactly these values):
- MONEY_IN (for income/money received)
- MONEY_OUT (for expenses/money spent)

Respond with JSON in this exact format:
{
  "amount": number,
  "description": string,
  "category": string,
  "date": "YYYY-MM-DD",
  "vendor": string,
  "confidence": number (0-1)
}

If you cannot extract certain fields, use null.
Set confidence based on how clear the information is in the text.
For Spanish receipts, keep descriptions in Spanish.`

func userPrompt(rawText string) string {
	// Truncate on runes so accented receipt text never ends mid-sequence.
	const maxSnippet = 4000
	snippet := rawText
	if len(snippet) > maxSnippet {
		runes := []rune(snippet)
		if len(runes) > maxSnippet {
			runes = runes[:maxSnippet]
		}
		snippet = string(runes)
	}
	return "Extract transaction data from this receipt text: " + snippet
}

func extractJSONObject(raw string) string {
	start := -1
	end := -1
	for i, r := range raw {
		if r == '{' {
			start = i
			break
		}
	}
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] == '}' {
			end = i
			break
		}
	}
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
