/*
Package stream turns the raw event feed of a run into what a client may see.

Filter drops tool results and supervisor deliberation, Pipe applies it between
two channels, and Writer encodes the survivors as Server-Sent Events frames
terminated by exactly one sentinel.
*/
package stream
