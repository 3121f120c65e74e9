package conversation

import "testing"

func TestAssemblePromptOrdering(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "Oi"},
		{Role: RoleAssistant, Content: "Olá!"},
	}

	prompt := AssemblePrompt("persona", history, "tudo bem?")

	if len(prompt) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(prompt))
	}
	if prompt[0].Role != RoleSystem || prompt[0].Content != "persona" {
		t.Errorf("expected system turn first, got %+v", prompt[0])
	}
	if prompt[1] != history[0] || prompt[2] != history[1] {
		t.Errorf("expected history in stored order, got %+v", prompt[1:3])
	}
	last := prompt[3]
	if last.Role != RoleUser || last.Content != "tudo bem?" {
		t.Errorf("expected current user turn last, got %+v", last)
	}
}

func TestAssemblePromptEmptyHistory(t *testing.T) {
	prompt := AssemblePrompt("persona", nil, "Oi")

	if len(prompt) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(prompt))
	}
	if prompt[0].Role != RoleSystem || prompt[1].Role != RoleUser {
		t.Errorf("expected system then user, got %+v", prompt)
	}
}

func TestAssemblePromptDoesNotMutateHistory(t *testing.T) {
	history := make([]Turn, 0, 8)
	history = append(history, Turn{Role: RoleUser, Content: "Oi"}, Turn{Role: RoleAssistant, Content: "Olá!"})

	_ = AssemblePrompt("persona", history, "x")

	if len(history) != 2 || history[0].Content != "Oi" || history[1].Content != "Olá!" {
		t.Errorf("history was mutated: %+v", history)
	}
}
