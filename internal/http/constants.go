package httpx

// CurrentPage identifiers used in templates and navigation.
const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageScreen   = "screen"
	PageError    = "error"
)

// Template directory paths.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:     "home-content",
	PageLogin:    "login-content",
	PageRegister: "register-content",
	PageScreen:   "screen-content",
	PageError:    "error-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Unknown pages render the error content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "error-content"
}
