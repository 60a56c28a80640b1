package flatbuffers

//go:generate flatc --go -o . schemas/message.fbs schemas/session.fbs
