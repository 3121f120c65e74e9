package conversation

// AssemblePrompt builds the ordered turn list handed to the reply generator:
// one system turn, the stored history in order, then the current user turn.
// The history slice is never mutated.
func AssemblePrompt(systemPrompt string, history []Turn, userText string) []Turn {
	prompt := make([]Turn, 0, len(history)+2)
	prompt = append(prompt, Turn{Role: RoleSystem, Content: systemPrompt})
	prompt = append(prompt, history...)
	prompt = append(prompt, Turn{Role: RoleUser, Content: userText})
	return prompt
}
