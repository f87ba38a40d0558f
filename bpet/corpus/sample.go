package corpus

// Sample returns a small built-in corpus, used when no corpus directory is
// configured.
func Sample() []string {
	return []string{
		"Hello world, how are you doing today? I am doing well!",
		"I enjoy coding in python, it is a fun language to work with.",
		"I am currently working on a project that involves NLP.",
		"This is a NLP tokenizer that I am working on. I hope it works well!",
		"Byte pair encoding is a method of tokenization that is used in NLP.",
		"NLP NLP NLP",
	}
}
