package mysql

const insertHotelSQL = `
INSERT INTO hotels (name, location, tally_form_url, sheet_id, sheet_url)
VALUES (?, ?, ?, ?, ?)
`

const updateHotelSQL = `
UPDATE hotels
SET name = ?, location = ?, tally_form_url = ?, sheet_id = ?, sheet_url = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

// Responses go with the hotel (ON DELETE CASCADE in the schema).
const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const hotelColumns = `id, name, location, tally_form_url, sheet_id, sheet_url, created_at, updated_at`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

const listHotelsSQL = `SELECT ` + hotelColumns + ` FROM hotels ORDER BY id`

const findHotelByFormRefSQL = `
SELECT ` + hotelColumns + ` FROM hotels
WHERE tally_form_url LIKE CONCAT('%', ?, '%')
ORDER BY id LIMIT 1
`

const firstHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels ORDER BY id LIMIT 1`

const insertResponseSQL = `
INSERT INTO satisfaction_responses
  (hotel_id, client_name, client_email,
   overall_rating, accommodation_rating, service_rating, cleanliness_rating,
   food_rating, location_rating, value_rating,
   would_recommend, comments, submission_date, tally_submission_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), ?)
`

const responseColumns = `
id, hotel_id, client_name, client_email,
overall_rating, accommodation_rating, service_rating, cleanliness_rating,
food_rating, location_rating, value_rating,
would_recommend, comments, submission_date, tally_submission_id`

const findResponseBySubmissionSQL = `
SELECT ` + responseColumns + `
FROM satisfaction_responses WHERE tally_submission_id = ?
`

const listResponsesSQL = `
SELECT ` + responseColumns + `
FROM satisfaction_responses
WHERE hotel_id = ?
ORDER BY submission_date, id
`

const listResponsesSinceSQL = `
SELECT ` + responseColumns + `
FROM satisfaction_responses
WHERE hotel_id = ? AND submission_date >= ?
ORDER BY submission_date, id
`

const listResponsesPageSQL = `
SELECT ` + responseColumns + `
FROM satisfaction_responses
WHERE hotel_id = ?
ORDER BY submission_date DESC, id DESC
LIMIT ? OFFSET ?
`

const countResponsesSQL = `SELECT COUNT(*) FROM satisfaction_responses WHERE hotel_id = ?`

const responseCountsSQL = `
SELECT h.id, h.name, COUNT(r.id)
FROM hotels h
LEFT JOIN satisfaction_responses r ON r.hotel_id = h.id
GROUP BY h.id, h.name
ORDER BY h.id
`
