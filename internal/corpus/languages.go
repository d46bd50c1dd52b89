package corpus

// extensionsByLanguage maps a language name to the file extensions the
// directory source collects for it.
var extensionsByLanguage = map[string][]string{
	"python":     {".py"},
	"javascript": {".js"},
	"typescript": {".ts"},
	"java":       {".java"},
	"c":          {".c", ".h"},
	"cpp":        {".cpp", ".cc", ".cxx", ".hpp", ".hxx"},
	"csharp":     {".cs"},
	"go":         {".go"},
	"ruby":       {".rb"},
	"rust":       {".rs"},
	"scala":      {".scala"},
}

// Extensions returns the file extensions collected for a language, or nil
// for an unknown language.
func Extensions(language string) []string {
	return extensionsByLanguage[language]
}

// Languages lists every language the directory source knows extensions for.
func Languages() []string {
	out := make([]string, 0, len(extensionsByLanguage))
	for lang := range extensionsByLanguage {
		out = append(out, lang)
	}
	return out
}
