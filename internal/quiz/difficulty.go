package quiz

var difficultyConfigs = map[Difficulty]DifficultyConfig{
	Easy: {
		Description:    "Create basic recall questions that test simple facts and definitions. Focus on fundamental concepts that are directly stated in the text.",
		CorrectOptions: "single",
		TrickyLevel:    "low",
		Distractors:    "obviously wrong options",
	},
	Medium: {
		Description:    "Create questions that require understanding and application of concepts. Include some questions that require connecting different ideas.",
		CorrectOptions: "single",
		TrickyLevel:    "medium",
		Distractors:    "plausible but incorrect options",
	},
	Hard: {
		Description:    "Create challenging questions that require analysis, evaluation, and synthesis. Include questions that test deeper understanding and critical thinking.",
		CorrectOptions: "mixed",
		TrickyLevel:    "high",
		Distractors:    "partially correct options that seem right",
	},
	Difficult: {
		Description:    "Create extremely challenging questions with multiple correct answers or trick questions. These should test deep understanding, critical analysis, and ability to discern subtle differences.",
		CorrectOptions: "multiple",
		TrickyLevel:    "very_high",
		Distractors:    "options that are technically correct but not the best answer, or require nuanced understanding",
	},
}

// ConfigFor returns the configuration for d. Unknown difficulties get the
// medium configuration.
func ConfigFor(d Difficulty) DifficultyConfig {
	if c, ok := difficultyConfigs[d]; ok {
		return c
	}
	return difficultyConfigs[Medium]
}

// Difficulties lists the supported levels, easiest first.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard, Difficult}
}

const difficultAddon = `
FOR DIFFICULT LEVEL QUESTIONS:
1. Most questions (at least 60%) should have MULTIPLE correct answers (1-3 correct options out of 4)
2. Include "Select ALL that apply" or similar phrasing when multiple answers are correct
3. For single-answer questions, make them extremely tricky with:
   - Options that are all partially correct
   - Subtle differences between options
   - Questions that require deep conceptual understanding
4. Options should be carefully crafted to test nuanced understanding
5. Include questions where the "best" answer must be chosen among several good options
`
