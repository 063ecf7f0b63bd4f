// Package orchestrator sequences one convergence pass over the whole
// stack: wait for the applications to come up, discover their API keys,
// then drive every application toward the desired state and restart
// what changed.
//
// Steps are individually recorded on a Run. Most failures are advisory
// (the pass continues and the summary shows what went wrong); only a
// missing API key or an unusable aggregator aborts the pass, because
// nothing downstream can work without them.
package orchestrator
