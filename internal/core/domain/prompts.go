package domain

// Built-in prompt templates. Placeholders use {name} syntax and are
// substituted literally, so user text containing braces is never reinterpreted.

// ClassifyPrompt asks the model for exactly one intent label.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const ClassifyPrompt = `Your task is to classify the user's query into one of two categories: 'general_query' or 'specific_question'.
- 'general_query': Use for questions asking for a summary, overview, main points, or the overall purpose of the document.
- 'specific_question': Use for questions asking about a specific detail, definition, concept, or fact within the document.

Do not answer the question. Only provide the category label.

User Query: "{query}"
Category:`

// AnswerDocumentPrompt answers from the complete document text.
const AnswerDocumentPrompt = `You are a helpful assistant. Answer the user's question based on the full content of the document provided below.

Document:
{context}

Question:
{question}

Answer:`

// AnswerContextPrompt answers from retrieved chunks and requires the
// disclaimer whenever the model falls back to general knowledge.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const AnswerContextPrompt = `You are a helpful assistant. Your primary goal is to answer the user's question based on the provided context.

1. First, carefully read the context below and try to answer the question using only this information.
2. If the context is sufficient, provide a direct answer based on it.
3. If the context does not contain the answer or is insufficient, use your general knowledge to answer the question.
4. **Crucially**, if you use your general knowledge, you **must** add the following disclaimer at the end of your answer: "` + Disclaimer + `"

Context:
{context}

Question:
{question}

Answer:`
