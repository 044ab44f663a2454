// Package lyrics looks up each catalog track on the Genius search API and
// stores the first hit's page URL next to the track as a .txt file.
package lyrics
