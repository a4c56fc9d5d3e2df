package artifact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// webGenerator renders standalone HTML/CSS/JS snippets and JSON payloads
// for the browser UI.
type webGenerator struct{}

func (g *webGenerator) ChannelID() string { return "web" }

func (g *webGenerator) Constraints() Constraints {
	return Constraints{
		MaxMessageLength:    100000,
		SupportsRichText:    true,
		SupportsMedia:       true,
		SupportsInteractive: true,
	}
}

func (g *webGenerator) ValidateMessage(message string) Validation {
	return validate(message, g.Constraints())
}

func (g *webGenerator) Generate(req Request) Result {
	switch req.Type {
	case "html":
		return g.html(req.Content)
	case "css":
		return g.css()
	case "javascript":
		return g.javascript(req.Content)
	case "json":
		return g.json(req.Content)
	default:
		return unsupported(req.Type)
	}
}

func (g *webGenerator) html(content map[string]any) Result {
	title := str(content, "title", "BK25 Response")

	var codeBlock string
	if code := str(content, "code", ""); code != "" {
		lang := str(content, "language", "text")
		codeBlock = fmt.Sprintf(`
            <div class="code-block">
                <h3>Generated Code:</h3>
                <pre><code class="language-%s">%s</code></pre>
            </div>`, lang, code)
	}

	var actionBlock string
	if actions := items(content, "actions"); len(actions) > 0 {
		var buttons strings.Builder
		for _, action := range actions {
			fmt.Fprintf(&buttons, `<button class="btn btn-primary" onclick="%s">%s</button>`,
				str(action, "onclick", ""), str(action, "label", "Action"))
		}
		actionBlock = fmt.Sprintf(`
            <div class="actions">
                %s
            </div>`, buttons.String())
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <link rel="stylesheet" href="styles.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>%s</h1>
        </header>
        <main>
            <div class="content">
                %s
            </div>%s%s
        </main>
    </div>
    <script src="script.js"></script>
</body>
</html>`, title, title, str(content, "text", ""), codeBlock, actionBlock)

	return Result{
		Success:          true,
		Artifact:         page,
		FormattedContent: page,
		Metadata:         map[string]any{"platform": "web", "type": "html"},
	}
}

func (g *webGenerator) css() Result {
	css := `/* BK25 Generated Styles */
.container {
    max-width: 1200px;
    margin: 0 auto;
    padding: 20px;
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
}

header {
    text-align: center;
    margin-bottom: 30px;
    padding-bottom: 20px;
    border-bottom: 2px solid #007bff;
}

.content {
    line-height: 1.6;
    margin-bottom: 30px;
}

.code-block {
    background: #f8f9fa;
    border: 1px solid #e9ecef;
    border-radius: 5px;
    padding: 20px;
    margin: 20px 0;
}

.code-block pre {
    margin: 0;
    overflow-x: auto;
}

.actions {
    text-align: center;
    margin-top: 30px;
}

.btn {
    display: inline-block;
    padding: 10px 20px;
    margin: 0 10px;
    border: none;
    border-radius: 5px;
    cursor: pointer;
    text-decoration: none;
    font-size: 16px;
}

.btn-primary {
    background-color: #007bff;
    color: white;
}

.btn-primary:hover {
    background-color: #0056b3;
}`

	return Result{
		Success:          true,
		Artifact:         css,
		FormattedContent: css,
		Metadata:         map[string]any{"platform": "web", "type": "css"},
	}
}

func (g *webGenerator) javascript(content map[string]any) Result {
	js := fmt.Sprintf(`// BK25 Generated JavaScript
document.addEventListener('DOMContentLoaded', function() {
    console.log('BK25 Web Interface loaded');

    initializeActions();

    %s
});

function initializeActions() {
    const buttons = document.querySelectorAll('.btn');
    buttons.forEach(button => {
        button.addEventListener('click', function(e) {
            console.log('Button clicked:', e.target.textContent);
        });
    });
}

function showMessage(message, type = 'info') {
    const messageDiv = document.createElement('div');
    messageDiv.className = `+"`alert alert-${type}`"+`;
    messageDiv.textContent = message;

    const container = document.querySelector('.container');
    container.insertBefore(messageDiv, container.firstChild);

    setTimeout(() => {
        messageDiv.remove();
    }, 5000);
}`, str(content, "custom_js", ""))

	return Result{
		Success:          true,
		Artifact:         js,
		FormattedContent: js,
		Metadata:         map[string]any{"platform": "web", "type": "javascript"},
	}
}

func (g *webGenerator) json(content map[string]any) Result {
	payload := map[string]any{
		"title":   str(content, "title", "BK25 Response"),
		"text":    str(content, "text", ""),
		"code":    content["code"],
		"actions": content["actions"],
		"metadata": map[string]any{
			"platform":     "web",
			"generated_by": "BK25",
			"timestamp":    str(content, "timestamp", ""),
		},
	}

	formatted, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("JSON generation failed: %v", err)}
	}

	return Result{
		Success:          true,
		Artifact:         payload,
		FormattedContent: string(formatted),
		Metadata:         map[string]any{"platform": "web", "type": "json"},
	}
}
