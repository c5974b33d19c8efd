package domain

// KeyPrefix namespaces every key this service writes to the backing store.
const KeyPrefix = "ddv:"
