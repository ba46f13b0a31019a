/*
Package types defines the data structures shared by the session engine,
the execution bridge and the stores.

# Request Types

RequestData:
  - One editable request: method, URL, headers, body
  - Identified by a UUID
  - IsSending is process-local and never serialized

RequestBody:
  - Tagged variant: None, Text, Json, FormUrlEncoded
  - Persisted externally tagged ("None", {"Text": "..."}, {"Json": "..."}, {"FormData": {...}})

MultipartField:
  - Key/value pairs with an optional file path
  - Kept beside the body, encoded as multipart/form-data at send time

Header:
  - Ordered, duplicates allowed
  - Disabled headers are kept but never sent

# Response Types

ResponseData:
  - Status, headers, content type, size and duration
  - Text body plus raw bytes (raw bytes are never persisted)
  - Body hash and formatted body are computed lazily and cached together

ResponseState:
  - Idle -> Loading -> Success | Error
  - Success and Error are only reachable from Loading
  - Begin and Reset are legal from any phase

# Stored Entities

HistoryEntry:
  - Snapshot of a request and its optional response
  - Only the Starred flag changes after creation

Collection / CollectionItem:
  - User curated groups of saved requests

# Usage

	req := types.NewRequestData()
	req.URL = "https://api.example.com/users"
	req.Method = types.MethodPost
	req.Body = types.JSONBody(`{"name": "ada"}`)

	snapshot := req.Clone()
*/
package types
