package postgres

const createTableSQL = `
CREATE TABLE IF NOT EXISTS packets (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    sender_callsign text NOT NULL,
    sender_base text NOT NULL,
    sender_ssid int NOT NULL,
    dest_callsign text NULL,
    dest_base text NULL,
    dest_ssid int NULL,
    path text NULL,
    type text NOT NULL,
    latitude double precision NULL,
    longitude double precision NULL,
    speed double precision NULL,
    course int NULL,
    wx_wind_dir int NULL,
    wx_wind_speed int NULL,
    wx_wind_gust int NULL,
    wx_temperature int NULL,
    wx_rain_1h int NULL,
    wx_rain_24h int NULL,
    wx_rain_midnight int NULL,
    wx_humidity int NULL,
    wx_pressure int NULL,
    sent_time timestamp WITH TIME ZONE NULL,
    received_at timestamp WITH TIME ZONE NOT NULL,
    raw_content text NOT NULL,
    comment text NULL,
    symbol_table text NULL,
    symbol_code text NULL
);`

// received_at carries DESC to match the feed ordering of list queries.
// sender_base gets its own index because sender search matches either
// the full callsign or the base.
const createIndexesSQL = `
CREATE INDEX IF NOT EXISTS packets_received_at_idx ON packets (received_at DESC);
CREATE INDEX IF NOT EXISTS packets_sender_callsign_idx ON packets (sender_callsign);
CREATE INDEX IF NOT EXISTS packets_sender_base_idx ON packets (sender_base);
CREATE INDEX IF NOT EXISTS packets_type_idx ON packets (type);
CREATE INDEX IF NOT EXISTS packets_latitude_idx ON packets (latitude);
CREATE INDEX IF NOT EXISTS packets_longitude_idx ON packets (longitude);
`
