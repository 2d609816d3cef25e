package normalize

import "testing"

func TestQuestion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases and trims", "  QUELS UTILISATEURS  ", "quels utilisateur"},
		{"collapses punctuation runs", "combien d'actions ??!!", "combien d'actions"},
		{"keeps single question mark", "combien d'actions ?", "combien d'actions ?"},
		{"collapses whitespace", "combien    d'actions\tpar jour", "combien d'actions par jour"},
		{"plural collapses", "les utilisateurs et les objets", "les utilisateur et les objet"},
		{"misspelled today", "actions aujoud'hui", "actions aujourd'hui"},
		{"db username variants", "filtre sur db_username et db username", "filtre sur dbusername et dbusername"},
		{"os username", "filtre os username", "filtre os_username"},
		{"object name variants", "par object name et objectschema", "par object_name et object_schema"},
		{"client program", "top client program", "top client_program_name"},
		{"empty input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Question(tt.in); got != tt.want {
				t.Errorf("Question(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuestionIdempotent(t *testing.T) {
	in := "Combien d'ACTIONS par DBUSERNAME ??"
	once := Question(in)
	if twice := Question(once); twice != once {
		t.Errorf("normalization not idempotent: %q then %q", once, twice)
	}
}
