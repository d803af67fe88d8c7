package domain

import "errors"

// ErrProviderBusy indicates all nntp connections are in use
var ErrProviderBusy = errors.New("all providers busy")

// ErrArticleNotFound indicates a 430 response from a peer or an unknown message-id locally
var ErrArticleNotFound = errors.New("article not found")

// ErrDuplicateArticle is returned when a message-id is already in the spool
var ErrDuplicateArticle = errors.New("article already in spool")

// ErrGroupNotFound is returned for a newsgroup the index has never seen
var ErrGroupNotFound = errors.New("no such newsgroup")
