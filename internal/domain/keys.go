package domain

// KeyPrefix namespaces every key askdex writes to the shared store.
const KeyPrefix = "askdex:"
