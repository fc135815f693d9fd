package perception

import (
	"testing"
)

func TestExtract_ObjectAndDomain(t *testing.T) {
	lex := DefaultLexicon()
	tests := []struct {
		name       string
		text       string
		wantObject string
		wantTarget string
		wantDomain string
	}{
		{"verb object domain", "Extract emails from linkedin.com", "emails", "linkedin.com", "linkedin.com"},
		{"search preposition", "Find laptops on amazon.com", "laptops", "amazon.com", "amazon.com"},
		{"determiners stripped", "get the job listings from indeed.com", "job listings", "indeed.com", "indeed.com"},
		{"no target", "extract phone numbers", "phone numbers", "", ""},
		{"conjunction ends object", "extract emails and phone numbers from linkedin.com", "emails", "linkedin.com", "linkedin.com"},
		{"generic object kept for validator", "get stuff", "stuff", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := Extract(tt.text, lex)
			if ext.Object != tt.wantObject {
				t.Errorf("Object = %q, want %q", ext.Object, tt.wantObject)
			}
			if ext.Target != tt.wantTarget {
				t.Errorf("Target = %q, want %q", ext.Target, tt.wantTarget)
			}
			if ext.Domain != tt.wantDomain {
				t.Errorf("Domain = %q, want %q", ext.Domain, tt.wantDomain)
			}
		})
	}
}

func TestExtract_URL(t *testing.T) {
	ext := Extract("open https://www.example.com/jobs?page=2 please", DefaultLexicon())
	if ext.URL != "https://www.example.com/jobs?page=2" {
		t.Errorf("URL = %q", ext.URL)
	}
	if ext.Target != ext.URL {
		t.Errorf("Target should be the URL, got %q", ext.Target)
	}
	if ext.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", ext.Domain)
	}
}

func TestExtract_CountAndFormat(t *testing.T) {
	lex := DefaultLexicon()

	ext := Extract("get the top 10 products from site.com", lex)
	if ext.Count != 10 {
		t.Errorf("Count = %d, want 10", ext.Count)
	}
	if ext.Object != "products" {
		t.Errorf("Object = %q, want products (count stripped)", ext.Object)
	}

	ext = Extract("export the prices as csv", lex)
	if ext.Format != "csv" {
		t.Errorf("Format = %q, want csv", ext.Format)
	}
	if ext.Object != "prices" {
		t.Errorf("Object = %q, want prices", ext.Object)
	}
}

func TestExtract_Pronouns(t *testing.T) {
	ext := Extract("navigate there", DefaultLexicon())
	if len(ext.Pronouns) != 1 || ext.Pronouns[0] != "there" {
		t.Errorf("Pronouns = %v, want [there]", ext.Pronouns)
	}
	if ext.Object != "" {
		t.Errorf("reference token must not become the object, got %q", ext.Object)
	}
	if ext.Target != "" {
		t.Errorf("pronoun target stays empty until context resolution, got %q", ext.Target)
	}
}

func TestExtract_MultiStep(t *testing.T) {
	lex := DefaultLexicon()
	if !Extract("open site.com and extract the emails", lex).MultiStep {
		t.Error("two chained verbs should be multi-step")
	}
	if Extract("extract emails and phone numbers", lex).MultiStep {
		t.Error("a compound object is not multi-step")
	}
}

func TestExtract_Expression(t *testing.T) {
	ext := Extract("calculate 120*4+7", DefaultLexicon())
	if ext.Expression != "120*4+7" {
		t.Errorf("Expression = %q, want 120*4+7", ext.Expression)
	}
	ext = Extract("calculate my destiny", DefaultLexicon())
	if ext.Expression != "" {
		t.Errorf("Expression = %q, want empty", ext.Expression)
	}
}

func TestExtract_VersionNumberIsNotDomain(t *testing.T) {
	ext := Extract("search release notes 1.2.3", DefaultLexicon())
	if ext.Domain != "" {
		t.Errorf("version string misread as domain: %q", ext.Domain)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	lex := DefaultLexicon()
	a := Extract("get the top 5 laptops from amazon.com as json", lex)
	b := Extract("get the top 5 laptops from amazon.com as json", lex)
	if a.Object != b.Object || a.Target != b.Target || a.Count != b.Count || a.Format != b.Format {
		t.Errorf("extraction not deterministic: %+v vs %+v", a, b)
	}
}
