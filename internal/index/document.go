package index

import "strings"

// assembleDocument extracts the JSON body shared by the epoch-2 and epoch-3
// envelopes. The raw text is a JS array literal broken across lines, one
// quoted line per crate, each ending with a `\` continuation marker:
//
//	var searchIndex = JSON.parse('{\
//	"cratename":{"doc":"...","t":[1],...}\
//	}');
//
// The crate lines are concatenated, wrapped with braces, and the escaping
// the generator applied for the surrounding single-quoted JS string is
// reversed, yielding a plain JSON object.
func assembleDocument(raw string) string {
	var b strings.Builder
	b.WriteByte('{')
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, `"`) {
			continue
		}
		body, ok := strings.CutSuffix(line, `\`)
		if !ok {
			continue
		}
		b.WriteString(body)
	}
	b.WriteByte('}')

	json := b.String()
	json = strings.ReplaceAll(json, `\\"`, `\"`)
	json = strings.ReplaceAll(json, `\'`, `'`)
	json = strings.ReplaceAll(json, `\\`, `\`)
	return json
}
