// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answering pipeline is:
//
//	IndexService.LoadOrCreate -> RAGService.Answer
//	                             (IntentClassifier.Classify, AnswerComposer.Compose)
//
// SessionService ties both to one uploaded document.
package services
